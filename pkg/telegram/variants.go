package telegram

import (
	"github.com/runixer/botapi/pkg/hydrate"
)

// Polymorphic objects. The concrete type is picked from a discriminator key
// when the payload is hydrated; unknown discriminators end up as
// *hydrate.Object in the parent's extra bag.

func init() {
	origins := hydrate.Variant("type", map[string]any{
		"user":        MessageOriginUser{},
		"hidden_user": MessageOriginHiddenUser{},
		"chat":        MessageOriginChat{},
		"channel":     MessageOriginChannel{},
	})
	hydrate.Register(Message{}, "forward_origin", origins)

	members := hydrate.Variant("status", map[string]any{
		"creator":       ChatMemberOwner{},
		"administrator": ChatMemberAdministrator{},
		"member":        ChatMemberMember{},
		"restricted":    ChatMemberRestricted{},
		"left":          ChatMemberLeft{},
		"kicked":        ChatMemberBanned{},
	})
	hydrate.Register(ChatMemberUpdated{}, "old_chat_member", members)
	hydrate.Register(ChatMemberUpdated{}, "new_chat_member", members)
}

// MessageOrigin describes where a forwarded message originally came from.
type MessageOrigin interface {
	OriginType() string
	OriginDate() int64
}

// MessageOriginUser: the message was originally sent by a known user.
type MessageOriginUser struct {
	Type       string `json:"type"`
	Date       int64  `json:"date"`
	SenderUser *User  `json:"sender_user"`
	hydrate.Passthrough
}

// MessageOriginHiddenUser: the message was originally sent by an unknown user.
type MessageOriginHiddenUser struct {
	Type           string `json:"type"`
	Date           int64  `json:"date"`
	SenderUserName string `json:"sender_user_name"`
	hydrate.Passthrough
}

// MessageOriginChat: the message was originally sent on behalf of a chat to a group chat.
type MessageOriginChat struct {
	Type            string `json:"type"`
	Date            int64  `json:"date"`
	SenderChat      *Chat  `json:"sender_chat"`
	AuthorSignature string `json:"author_signature,omitempty"`
	hydrate.Passthrough
}

// MessageOriginChannel: the message was originally sent to a channel chat.
type MessageOriginChannel struct {
	Type            string `json:"type"`
	Date            int64  `json:"date"`
	Chat            *Chat  `json:"chat"`
	MessageID       int    `json:"message_id"`
	AuthorSignature string `json:"author_signature,omitempty"`
	hydrate.Passthrough
}

func (o MessageOriginUser) OriginType() string       { return o.Type }
func (o MessageOriginUser) OriginDate() int64        { return o.Date }
func (o MessageOriginHiddenUser) OriginType() string { return o.Type }
func (o MessageOriginHiddenUser) OriginDate() int64  { return o.Date }
func (o MessageOriginChat) OriginType() string       { return o.Type }
func (o MessageOriginChat) OriginDate() int64        { return o.Date }
func (o MessageOriginChannel) OriginType() string    { return o.Type }
func (o MessageOriginChannel) OriginDate() int64     { return o.Date }

// ChatMemberUpdated represents changes in the status of a chat member.
type ChatMemberUpdated struct {
	Chat          *Chat      `json:"chat"`
	From          *User      `json:"from"`
	Date          int64      `json:"date"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
	hydrate.Passthrough
}

// ChatMember contains information about one member of a chat.
type ChatMember interface {
	MemberStatus() string
	MemberUser() *User
}

// ChatMemberOwner represents a chat member that owns the chat.
type ChatMemberOwner struct {
	Status      string `json:"status"`
	User        *User  `json:"user"`
	IsAnonymous bool   `json:"is_anonymous"`
	CustomTitle string `json:"custom_title,omitempty"`
	hydrate.Passthrough
}

// ChatMemberAdministrator represents a chat member with administrator privileges.
type ChatMemberAdministrator struct {
	Status              string `json:"status"`
	User                *User  `json:"user"`
	CanBeEdited         bool   `json:"can_be_edited"`
	IsAnonymous         bool   `json:"is_anonymous"`
	CanManageChat       bool   `json:"can_manage_chat"`
	CanDeleteMessages   bool   `json:"can_delete_messages"`
	CanManageVideoChats bool   `json:"can_manage_video_chats"`
	CanRestrictMembers  bool   `json:"can_restrict_members"`
	CanPromoteMembers   bool   `json:"can_promote_members"`
	CanChangeInfo       bool   `json:"can_change_info"`
	CanInviteUsers      bool   `json:"can_invite_users"`
	CanPostMessages     bool   `json:"can_post_messages,omitempty"`
	CanEditMessages     bool   `json:"can_edit_messages,omitempty"`
	CanPinMessages      bool   `json:"can_pin_messages,omitempty"`
	CustomTitle         string `json:"custom_title,omitempty"`
	hydrate.Passthrough
}

// ChatMemberMember represents a chat member with no additional privileges or restrictions.
type ChatMemberMember struct {
	Status    string `json:"status"`
	User      *User  `json:"user"`
	UntilDate int64  `json:"until_date,omitempty"`
	hydrate.Passthrough
}

// ChatMemberRestricted represents a chat member under certain restrictions.
type ChatMemberRestricted struct {
	Status    string `json:"status"`
	User      *User  `json:"user"`
	IsMember  bool   `json:"is_member"`
	UntilDate int64  `json:"until_date"`
	ChatPermissions
}

// ChatMemberLeft represents a user who isn't currently a member of the chat.
type ChatMemberLeft struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
	hydrate.Passthrough
}

// ChatMemberBanned represents a user that was banned in the chat.
type ChatMemberBanned struct {
	Status    string `json:"status"`
	User      *User  `json:"user"`
	UntilDate int64  `json:"until_date"`
	hydrate.Passthrough
}

func (m ChatMemberOwner) MemberStatus() string         { return m.Status }
func (m ChatMemberOwner) MemberUser() *User            { return m.User }
func (m ChatMemberAdministrator) MemberStatus() string { return m.Status }
func (m ChatMemberAdministrator) MemberUser() *User    { return m.User }
func (m ChatMemberMember) MemberStatus() string        { return m.Status }
func (m ChatMemberMember) MemberUser() *User           { return m.User }
func (m ChatMemberRestricted) MemberStatus() string    { return m.Status }
func (m ChatMemberRestricted) MemberUser() *User       { return m.User }
func (m ChatMemberLeft) MemberStatus() string          { return m.Status }
func (m ChatMemberLeft) MemberUser() *User             { return m.User }
func (m ChatMemberBanned) MemberStatus() string        { return m.Status }
func (m ChatMemberBanned) MemberUser() *User           { return m.User }
