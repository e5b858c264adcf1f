package telegram

import (
	"github.com/runixer/botapi/pkg/hydrate"
)

// Objects returned by the Bot API. Every type embeds hydrate.Passthrough so
// fields added to the API after this client was written are still reachable
// through hydrate.Lookup.

// Update represents an incoming update. At most one of the optional payloads
// is present.
type Update struct {
	UpdateID           int64               `json:"update_id"`
	Message            *Message            `json:"message,omitempty"`
	EditedMessage      *Message            `json:"edited_message,omitempty"`
	ChannelPost        *Message            `json:"channel_post,omitempty"`
	EditedChannelPost  *Message            `json:"edited_channel_post,omitempty"`
	InlineQuery        *InlineQuery        `json:"inline_query,omitempty"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result,omitempty"`
	CallbackQuery      *CallbackQuery      `json:"callback_query,omitempty"`
	ShippingQuery      *ShippingQuery      `json:"shipping_query,omitempty"`
	PreCheckoutQuery   *PreCheckoutQuery   `json:"pre_checkout_query,omitempty"`
	Poll               *Poll               `json:"poll,omitempty"`
	PollAnswer         *PollAnswer         `json:"poll_answer,omitempty"`
	MyChatMember       *ChatMemberUpdated  `json:"my_chat_member,omitempty"`
	ChatMember         *ChatMemberUpdated  `json:"chat_member,omitempty"`
	hydrate.Passthrough
}

// Kind returns the wire name of the populated payload, or "" for an update
// carrying nothing this client knows about.
func (u *Update) Kind() string {
	switch {
	case u == nil:
		return ""
	case u.Message != nil:
		return "message"
	case u.EditedMessage != nil:
		return "edited_message"
	case u.ChannelPost != nil:
		return "channel_post"
	case u.EditedChannelPost != nil:
		return "edited_channel_post"
	case u.InlineQuery != nil:
		return "inline_query"
	case u.ChosenInlineResult != nil:
		return "chosen_inline_result"
	case u.CallbackQuery != nil:
		return "callback_query"
	case u.ShippingQuery != nil:
		return "shipping_query"
	case u.PreCheckoutQuery != nil:
		return "pre_checkout_query"
	case u.Poll != nil:
		return "poll"
	case u.PollAnswer != nil:
		return "poll_answer"
	case u.MyChatMember != nil:
		return "my_chat_member"
	case u.ChatMember != nil:
		return "chat_member"
	}
	return ""
}

// Message represents a message.
type Message struct {
	MessageID           int           `json:"message_id"`
	MessageThreadID     int           `json:"message_thread_id,omitempty"`
	From                *User         `json:"from,omitempty"`
	SenderChat          *Chat         `json:"sender_chat,omitempty"`
	Date                int64         `json:"date"`
	Chat                *Chat         `json:"chat"`
	ForwardOrigin       MessageOrigin `json:"forward_origin,omitempty"`
	IsTopicMessage      bool          `json:"is_topic_message,omitempty"`
	IsAutomaticForward  bool          `json:"is_automatic_forward,omitempty"`
	ReplyToMessage      *Message      `json:"reply_to_message,omitempty"`
	ViaBot              *User         `json:"via_bot,omitempty"`
	EditDate            int64         `json:"edit_date,omitempty"`
	HasProtectedContent bool          `json:"has_protected_content,omitempty"`
	MediaGroupID        string        `json:"media_group_id,omitempty"`
	AuthorSignature     string        `json:"author_signature,omitempty"`

	Text     string          `json:"text,omitempty"`
	Entities []MessageEntity `json:"entities,omitempty"`
	MediaCaption
	HasMediaSpoiler bool `json:"has_media_spoiler,omitempty"`

	Animation *Animation  `json:"animation,omitempty"`
	Audio     *Audio      `json:"audio,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Sticker   *Sticker    `json:"sticker,omitempty"`
	Video     *Video      `json:"video,omitempty"`
	VideoNote *VideoNote  `json:"video_note,omitempty"`
	Voice     *Voice      `json:"voice,omitempty"`
	Contact   *Contact    `json:"contact,omitempty"`
	Dice      *Dice       `json:"dice,omitempty"`
	Poll      *Poll       `json:"poll,omitempty"`
	Venue     *Venue      `json:"venue,omitempty"`
	Location  *Location   `json:"location,omitempty"`

	NewChatMembers          []User                   `json:"new_chat_members,omitempty"`
	LeftChatMember          *User                    `json:"left_chat_member,omitempty"`
	NewChatTitle            string                   `json:"new_chat_title,omitempty"`
	NewChatPhoto            []PhotoSize              `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto         bool                     `json:"delete_chat_photo,omitempty"`
	GroupChatCreated        bool                     `json:"group_chat_created,omitempty"`
	SupergroupChatCreated   bool                     `json:"supergroup_chat_created,omitempty"`
	ChannelChatCreated      bool                     `json:"channel_chat_created,omitempty"`
	MigrateToChatID         int64                    `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID       int64                    `json:"migrate_from_chat_id,omitempty"`
	PinnedMessage           *Message                 `json:"pinned_message,omitempty"`
	ProximityAlertTriggered *ProximityAlertTriggered `json:"proximity_alert_triggered,omitempty"`
	ReplyMarkup             *InlineKeyboardMarkup    `json:"reply_markup,omitempty"`
	hydrate.Passthrough
}

// MessageID is the result of copyMessage.
type MessageID struct {
	MessageID int `json:"message_id"`
	hydrate.Passthrough
}

// User represents a Telegram user or bot.
type User struct {
	ID                      int64  `json:"id"`
	IsBot                   bool   `json:"is_bot"`
	FirstName               string `json:"first_name"`
	LastName                string `json:"last_name,omitempty"`
	Username                string `json:"username,omitempty"`
	LanguageCode            string `json:"language_code,omitempty"`
	IsPremium               bool   `json:"is_premium,omitempty"`
	CanJoinGroups           bool   `json:"can_join_groups,omitempty"`
	CanReadAllGroupMessages bool   `json:"can_read_all_group_messages,omitempty"`
	SupportsInlineQueries   bool   `json:"supports_inline_queries,omitempty"`
	hydrate.Passthrough
}

// Chat represents a chat.
type Chat struct {
	ID             int64            `json:"id"`
	Type           ChatType         `json:"type"`
	Title          string           `json:"title,omitempty"`
	Username       string           `json:"username,omitempty"`
	FirstName      string           `json:"first_name,omitempty"`
	LastName       string           `json:"last_name,omitempty"`
	IsForum        bool             `json:"is_forum,omitempty"`
	Photo          *ChatPhoto       `json:"photo,omitempty"`
	Bio            string           `json:"bio,omitempty"`
	Description    string           `json:"description,omitempty"`
	InviteLink     string           `json:"invite_link,omitempty"`
	PinnedMessage  *Message         `json:"pinned_message,omitempty"`
	Permissions    *ChatPermissions `json:"permissions,omitempty"`
	SlowModeDelay  int              `json:"slow_mode_delay,omitempty"`
	StickerSetName string           `json:"sticker_set_name,omitempty"`
	LinkedChatID   int64            `json:"linked_chat_id,omitempty"`
	Location       *ChatLocation    `json:"location,omitempty"`
	hydrate.Passthrough
}

// ParseField coerces the chat type into a ChatType.
func (c *Chat) ParseField(name string, value any) any {
	if name != "type" {
		return value
	}
	s, _ := value.(string)
	return ParseChatType(s)
}

// ChatLocation is the place a supergroup is connected to.
type ChatLocation struct {
	Location *Location `json:"location"`
	Address  string    `json:"address"`
	hydrate.Passthrough
}

// ChatPhoto represents a chat photo.
type ChatPhoto struct {
	SmallFileID       string `json:"small_file_id"`
	SmallFileUniqueID string `json:"small_file_unique_id"`
	BigFileID         string `json:"big_file_id"`
	BigFileUniqueID   string `json:"big_file_unique_id"`
	hydrate.Passthrough
}

// ChatPermissions describes actions a non-administrator user is allowed to take in a chat.
type ChatPermissions struct {
	CanSendMessages       bool `json:"can_send_messages,omitempty"`
	CanSendAudios         bool `json:"can_send_audios,omitempty"`
	CanSendDocuments      bool `json:"can_send_documents,omitempty"`
	CanSendPhotos         bool `json:"can_send_photos,omitempty"`
	CanSendVideos         bool `json:"can_send_videos,omitempty"`
	CanSendPolls          bool `json:"can_send_polls,omitempty"`
	CanSendOtherMessages  bool `json:"can_send_other_messages,omitempty"`
	CanAddWebPagePreviews bool `json:"can_add_web_page_previews,omitempty"`
	CanChangeInfo         bool `json:"can_change_info,omitempty"`
	CanInviteUsers        bool `json:"can_invite_users,omitempty"`
	CanPinMessages        bool `json:"can_pin_messages,omitempty"`
	CanManageTopics       bool `json:"can_manage_topics,omitempty"`
	hydrate.Passthrough
}

// MessageEntity represents one special entity in a text message.
// Offset and Length are measured in UTF-16 code units.
type MessageEntity struct {
	Type          MessageEntityType `json:"type"`
	Offset        int               `json:"offset"`
	Length        int               `json:"length"`
	URL           string            `json:"url,omitempty"`
	User          *User             `json:"user,omitempty"`
	Language      string            `json:"language,omitempty"`
	CustomEmojiID string            `json:"custom_emoji_id,omitempty"`
	hydrate.Passthrough
}

// ParseField coerces the entity type into a MessageEntityType.
func (e *MessageEntity) ParseField(name string, value any) any {
	if name != "type" {
		return value
	}
	s, _ := value.(string)
	return ParseMessageEntityType(s)
}

// PhotoSize represents one size of a photo or a file / sticker thumbnail.
type PhotoSize struct {
	FileBase
	Bounds
	hydrate.Passthrough
}

// Animation represents an animation file (GIF or H.264/MPEG-4 AVC video without sound).
type Animation struct {
	FileBase
	Bounds
	Duration  int        `json:"duration"`
	Thumbnail *PhotoSize `json:"thumbnail,omitempty"`
	FileDescription
	hydrate.Passthrough
}

// Audio represents an audio file to be treated as music.
type Audio struct {
	FileBase
	Duration  int        `json:"duration"`
	Performer string     `json:"performer,omitempty"`
	Title     string     `json:"title,omitempty"`
	Thumbnail *PhotoSize `json:"thumbnail,omitempty"`
	FileDescription
	hydrate.Passthrough
}

// Document represents a general file (as opposed to photos, voice messages and audio files).
type Document struct {
	FileBase
	Thumbnail *PhotoSize `json:"thumbnail,omitempty"`
	FileDescription
	hydrate.Passthrough
}

// Video represents a video file.
type Video struct {
	FileBase
	Bounds
	Duration  int        `json:"duration"`
	Thumbnail *PhotoSize `json:"thumbnail,omitempty"`
	FileDescription
	hydrate.Passthrough
}

// VideoNote represents a round video message.
type VideoNote struct {
	FileBase
	Length    int        `json:"length"`
	Duration  int        `json:"duration"`
	Thumbnail *PhotoSize `json:"thumbnail,omitempty"`
	hydrate.Passthrough
}

// Voice represents a voice note.
type Voice struct {
	FileBase
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	hydrate.Passthrough
}

// Sticker represents a sticker.
type Sticker struct {
	FileBase
	Bounds
	Type       string     `json:"type"`
	IsAnimated bool       `json:"is_animated"`
	IsVideo    bool       `json:"is_video"`
	Emoji      string     `json:"emoji,omitempty"`
	SetName    string     `json:"set_name,omitempty"`
	Thumbnail  *PhotoSize `json:"thumbnail,omitempty"`
	hydrate.Passthrough
}

// Contact represents a phone contact.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	VCard       string `json:"vcard,omitempty"`
	hydrate.Passthrough
}

// Dice represents an animated emoji that displays a random value.
type Dice struct {
	Emoji string `json:"emoji"`
	Value int    `json:"value"`
	hydrate.Passthrough
}

// Location represents a point on the map.
type Location struct {
	Longitude            float64 `json:"longitude"`
	Latitude             float64 `json:"latitude"`
	HorizontalAccuracy   float64 `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int     `json:"live_period,omitempty"`
	Heading              int     `json:"heading,omitempty"`
	ProximityAlertRadius int     `json:"proximity_alert_radius,omitempty"`
	hydrate.Passthrough
}

// Venue represents a venue.
type Venue struct {
	Location        *Location `json:"location"`
	Title           string    `json:"title"`
	Address         string    `json:"address"`
	FoursquareID    string    `json:"foursquare_id,omitempty"`
	FoursquareType  string    `json:"foursquare_type,omitempty"`
	GooglePlaceID   string    `json:"google_place_id,omitempty"`
	GooglePlaceType string    `json:"google_place_type,omitempty"`
	hydrate.Passthrough
}

// PollOption contains information about one answer option in a poll.
type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
	hydrate.Passthrough
}

// Poll contains information about a poll.
type Poll struct {
	ID                    string          `json:"id"`
	Question              string          `json:"question"`
	Options               []PollOption    `json:"options"`
	TotalVoterCount       int             `json:"total_voter_count"`
	IsClosed              bool            `json:"is_closed"`
	IsAnonymous           bool            `json:"is_anonymous"`
	Type                  PollType        `json:"type"`
	AllowsMultipleAnswers bool            `json:"allows_multiple_answers"`
	CorrectOptionID       *int            `json:"correct_option_id,omitempty"`
	Explanation           string          `json:"explanation,omitempty"`
	ExplanationEntities   []MessageEntity `json:"explanation_entities,omitempty"`
	OpenPeriod            int             `json:"open_period,omitempty"`
	CloseDate             int64           `json:"close_date,omitempty"`
	hydrate.Passthrough
}

// PollAnswer represents an answer of a user in a non-anonymous poll.
type PollAnswer struct {
	PollID    string `json:"poll_id"`
	VoterChat *Chat  `json:"voter_chat,omitempty"`
	User      *User  `json:"user,omitempty"`
	OptionIDs []int  `json:"option_ids"`
	hydrate.Passthrough
}

// CallbackQuery represents an incoming callback query from an inline keyboard button.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            *User    `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
	GameShortName   string   `json:"game_short_name,omitempty"`
	hydrate.Passthrough
}

// InlineQuery represents an incoming inline query.
type InlineQuery struct {
	ID       string    `json:"id"`
	From     *User     `json:"from"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
	ChatType string    `json:"chat_type,omitempty"`
	Location *Location `json:"location,omitempty"`
	hydrate.Passthrough
}

// ChosenInlineResult represents an inline query result chosen by a user.
type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            *User     `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
	hydrate.Passthrough
}

// ShippingAddress represents a shipping address.
type ShippingAddress struct {
	CountryCode string `json:"country_code"`
	State       string `json:"state"`
	City        string `json:"city"`
	StreetLine1 string `json:"street_line1"`
	StreetLine2 string `json:"street_line2"`
	PostCode    string `json:"post_code"`
	hydrate.Passthrough
}

// ShippingQuery contains information about an incoming shipping query.
type ShippingQuery struct {
	ID              string           `json:"id"`
	From            *User            `json:"from"`
	InvoicePayload  string           `json:"invoice_payload"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
	hydrate.Passthrough
}

// OrderInfo represents information about an order.
type OrderInfo struct {
	Name            string           `json:"name,omitempty"`
	PhoneNumber     string           `json:"phone_number,omitempty"`
	Email           string           `json:"email,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	hydrate.Passthrough
}

// PreCheckoutQuery contains information about an incoming pre-checkout query.
type PreCheckoutQuery struct {
	ID               string     `json:"id"`
	From             *User      `json:"from"`
	Currency         string     `json:"currency"`
	TotalAmount      int        `json:"total_amount"`
	InvoicePayload   string     `json:"invoice_payload"`
	ShippingOptionID string     `json:"shipping_option_id,omitempty"`
	OrderInfo        *OrderInfo `json:"order_info,omitempty"`
	hydrate.Passthrough
}

// ProximityAlertTriggered is the service message sent when a user in the chat
// triggers a proximity alert set by another user.
type ProximityAlertTriggered struct {
	Traveler *User `json:"traveler"`
	Watcher  *User `json:"watcher"`
	Distance int   `json:"distance"`
	hydrate.Passthrough
}

// File represents a file ready to be downloaded.
type File struct {
	FileBase
	FilePath string `json:"file_path,omitempty"`
	hydrate.Passthrough
}

// WebhookInfo describes the current status of a webhook.
type WebhookInfo struct {
	URL                          string   `json:"url"`
	HasCustomCertificate         bool     `json:"has_custom_certificate"`
	PendingUpdateCount           int      `json:"pending_update_count"`
	IPAddress                    string   `json:"ip_address,omitempty"`
	LastErrorDate                int64    `json:"last_error_date,omitempty"`
	LastErrorMessage             string   `json:"last_error_message,omitempty"`
	LastSynchronizationErrorDate int64    `json:"last_synchronization_error_date,omitempty"`
	MaxConnections               int      `json:"max_connections,omitempty"`
	AllowedUpdates               []string `json:"allowed_updates,omitempty"`
	hydrate.Passthrough
}

// BotCommand represents a bot command.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	hydrate.Passthrough
}

// ReactionType describes the type of a reaction.
type ReactionType struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
	hydrate.Passthrough
}

// ReplyMarkup is implemented by the keyboard types accepted as reply_markup.
type ReplyMarkup interface {
	replyMarkup()
}

// InlineKeyboardMarkup represents an inline keyboard that appears right next to the message it belongs to.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
	hydrate.Passthrough
}

// InlineKeyboardButton represents one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text                         string  `json:"text"`
	URL                          string  `json:"url,omitempty"`
	CallbackData                 string  `json:"callback_data,omitempty"`
	SwitchInlineQuery            *string `json:"switch_inline_query,omitempty"`
	SwitchInlineQueryCurrentChat *string `json:"switch_inline_query_current_chat,omitempty"`
	Pay                          bool    `json:"pay,omitempty"`
	hydrate.Passthrough
}

// ReplyKeyboardMarkup represents a custom keyboard with reply options.
type ReplyKeyboardMarkup struct {
	Keyboard              [][]KeyboardButton `json:"keyboard"`
	IsPersistent          bool               `json:"is_persistent,omitempty"`
	ResizeKeyboard        bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard       bool               `json:"one_time_keyboard,omitempty"`
	InputFieldPlaceholder string             `json:"input_field_placeholder,omitempty"`
	Selective             bool               `json:"selective,omitempty"`
	hydrate.Passthrough
}

// KeyboardButton represents one button of the reply keyboard.
type KeyboardButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
	hydrate.Passthrough
}

// ReplyKeyboardRemove asks clients to remove the custom keyboard.
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
	Selective      bool `json:"selective,omitempty"`
	hydrate.Passthrough
}

// ForceReply asks clients to display a reply interface to the user.
type ForceReply struct {
	ForceReply            bool   `json:"force_reply"`
	InputFieldPlaceholder string `json:"input_field_placeholder,omitempty"`
	Selective             bool   `json:"selective,omitempty"`
	hydrate.Passthrough
}

func (InlineKeyboardMarkup) replyMarkup() {}
func (ReplyKeyboardMarkup) replyMarkup()  {}
func (ReplyKeyboardRemove) replyMarkup()  {}
func (ForceReply) replyMarkup()           {}
