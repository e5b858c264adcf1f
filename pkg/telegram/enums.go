package telegram

// MessageEntityType classifies a tagged span of message text.
// https://core.telegram.org/bots/api#messageentity
type MessageEntityType string

const (
	EntityMention       MessageEntityType = "mention"
	EntityHashtag       MessageEntityType = "hashtag"
	EntityCashtag       MessageEntityType = "cashtag"
	EntityBotCommand    MessageEntityType = "bot_command"
	EntityURL           MessageEntityType = "url"
	EntityEmail         MessageEntityType = "email"
	EntityPhoneNumber   MessageEntityType = "phone_number"
	EntityBold          MessageEntityType = "bold"
	EntityItalic        MessageEntityType = "italic"
	EntityUnderline     MessageEntityType = "underline"
	EntityStrikethrough MessageEntityType = "strikethrough"
	EntitySpoiler       MessageEntityType = "spoiler"
	EntityBlockquote    MessageEntityType = "blockquote"
	EntityCode          MessageEntityType = "code"
	EntityPre           MessageEntityType = "pre"
	EntityTextLink      MessageEntityType = "text_link"
	EntityTextMention   MessageEntityType = "text_mention"
	EntityCustomEmoji   MessageEntityType = "custom_emoji"

	// EntityUnknown is what a tag this client does not know about decodes to.
	EntityUnknown MessageEntityType = "unknown"
)

var knownEntityTypes = map[MessageEntityType]struct{}{
	EntityMention:       {},
	EntityHashtag:       {},
	EntityCashtag:       {},
	EntityBotCommand:    {},
	EntityURL:           {},
	EntityEmail:         {},
	EntityPhoneNumber:   {},
	EntityBold:          {},
	EntityItalic:        {},
	EntityUnderline:     {},
	EntityStrikethrough: {},
	EntitySpoiler:       {},
	EntityBlockquote:    {},
	EntityCode:          {},
	EntityPre:           {},
	EntityTextLink:      {},
	EntityTextMention:   {},
	EntityCustomEmoji:   {},
}

// MessageEntityTypes returns every valid entity type.
func MessageEntityTypes() []MessageEntityType {
	out := make([]MessageEntityType, 0, len(knownEntityTypes))
	for t := range knownEntityTypes {
		out = append(out, t)
	}
	return out
}

// ParseMessageEntityType never fails: unrecognised tags become EntityUnknown.
func ParseMessageEntityType(s string) MessageEntityType {
	t := MessageEntityType(s)
	if _, ok := knownEntityTypes[t]; ok {
		return t
	}
	return EntityUnknown
}

// IsKnown reports whether t is a valid entity type (not the sentinel).
func (t MessageEntityType) IsKnown() bool {
	_, ok := knownEntityTypes[t]
	return ok
}

func (t MessageEntityType) String() string { return string(t) }

// ChatType classifies a chat.
// https://core.telegram.org/bots/api#chat
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"

	// ChatTypeUnknown is what a chat type this client does not know about decodes to.
	ChatTypeUnknown ChatType = "unknown"
)

var knownChatTypes = map[ChatType]struct{}{
	ChatPrivate:    {},
	ChatGroup:      {},
	ChatSupergroup: {},
	ChatChannel:    {},
}

// ChatTypes returns every valid chat type.
func ChatTypes() []ChatType {
	return []ChatType{ChatPrivate, ChatGroup, ChatSupergroup, ChatChannel}
}

// ParseChatType never fails: unrecognised types become ChatTypeUnknown.
func ParseChatType(s string) ChatType {
	t := ChatType(s)
	if _, ok := knownChatTypes[t]; ok {
		return t
	}
	return ChatTypeUnknown
}

// IsKnown reports whether t is a valid chat type (not the sentinel).
func (t ChatType) IsKnown() bool {
	_, ok := knownChatTypes[t]
	return ok
}

func (t ChatType) String() string { return string(t) }

// PollType is the kind of poll to send. Only used when building requests.
type PollType string

const (
	PollRegular PollType = "regular"
	PollQuiz    PollType = "quiz"
)

// ChatAction is the status shown by sendChatAction.
type ChatAction string

const (
	ActionTyping          ChatAction = "typing"
	ActionUploadPhoto     ChatAction = "upload_photo"
	ActionUploadDocument  ChatAction = "upload_document"
	ActionRecordVoice     ChatAction = "record_voice"
	ActionFindLocation    ChatAction = "find_location"
	ActionChooseSticker   ChatAction = "choose_sticker"
	ActionUploadVideoNote ChatAction = "upload_video_note"
)

// ParseMode selects the markup flavour of outgoing text.
type ParseMode string

const (
	ParseModeHTML       ParseMode = "HTML"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeMarkdown   ParseMode = "Markdown"
)
