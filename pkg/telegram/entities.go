package telegram

import (
	"strings"
	"unicode/utf16"
)

// EntityText returns the part of text covered by e. Offsets are counted in
// UTF-16 code units, as the Bot API does; out-of-range spans are clipped.
func EntityText(text string, e MessageEntity) string {
	units := utf16.Encode([]rune(text))
	start := clamp(e.Offset, 0, len(units))
	end := clamp(e.Offset+e.Length, start, len(units))
	return string(utf16.Decode(units[start:end]))
}

// EntitiesByType returns the text of every entity of the given type, in order.
func EntitiesByType(text string, entities []MessageEntity, t MessageEntityType) []string {
	out := []string{}
	if len(entities) == 0 {
		return out
	}
	units := utf16.Encode([]rune(text))
	for _, e := range entities {
		if e.Type != t {
			continue
		}
		start := clamp(e.Offset, 0, len(units))
		end := clamp(e.Offset+e.Length, start, len(units))
		out = append(out, string(utf16.Decode(units[start:end])))
	}
	return out
}

// EntitiesByType returns the text of the message's entities of type t.
// A nil message yields an empty slice.
func (m *Message) EntitiesByType(t MessageEntityType) []string {
	if m == nil {
		return []string{}
	}
	return EntitiesByType(m.Text, m.Entities, t)
}

// Command returns the first bot command of the message without its leading
// slash and bot mention ("/start@my_bot" -> "start"), or "".
func (m *Message) Command() string {
	cmds := m.EntitiesByType(EntityBotCommand)
	if len(cmds) == 0 {
		return ""
	}
	name, _ := ParseCommand(cmds[0])
	return name
}

// ParseCommand splits a bot_command entity text into the command name and
// the username it is addressed to: "/start@my_bot" -> ("start", "my_bot").
// mention is empty when the command names no bot.
func ParseCommand(entity string) (name, mention string) {
	name, mention, _ = strings.Cut(strings.TrimPrefix(entity, "/"), "@")
	return name, mention
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EntityOption sets an optional attribute of an entity added by MessageBuilder.
type EntityOption func(*MessageEntity)

// WithURL sets the target of a text_link entity.
func WithURL(url string) EntityOption {
	return func(e *MessageEntity) { e.URL = url }
}

// WithUser sets the mentioned user of a text_mention entity.
func WithUser(u *User) EntityOption {
	return func(e *MessageEntity) { e.User = u }
}

// WithLanguage sets the programming language of a pre entity.
func WithLanguage(lang string) EntityOption {
	return func(e *MessageEntity) { e.Language = lang }
}

// MessageBuilder assembles message text together with its entities, so the
// result can be sent without parse_mode.
//
// The first invalid entity is remembered and reported by Build; later calls
// are no-ops.
type MessageBuilder struct {
	text     strings.Builder
	units    int
	entities []MessageEntity
	err      error
}

// NewMessageBuilder creates an empty builder.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// Append adds plain text.
func (b *MessageBuilder) Append(text string) *MessageBuilder {
	if b.err != nil {
		return b
	}
	b.write(text)
	return b
}

// AppendEntity adds text marked as an entity of type t. Commands, cashtags,
// hashtags and mentions get their prefix ("/", "$", "#", "@") prepended.
func (b *MessageBuilder) AppendEntity(text string, t MessageEntityType, opts ...EntityOption) *MessageBuilder {
	if b.err != nil {
		return b
	}
	if !t.IsKnown() {
		b.err = preconditionf("unexpected entity type %q", t)
		return b
	}

	e := MessageEntity{Type: t}
	for _, opt := range opts {
		opt(&e)
	}
	switch {
	case e.URL != "" && t != EntityTextLink:
		b.err = preconditionf("url is allowed for text_link only, got %s", t)
	case e.User != nil && t != EntityTextMention:
		b.err = preconditionf("user is allowed for text_mention only, got %s", t)
	case e.Language != "" && t != EntityPre:
		b.err = preconditionf("language is allowed for pre only, got %s", t)
	}
	if b.err != nil {
		return b
	}

	e.Offset = b.units
	e.Length = b.write(entityPrefix(t) + text)
	b.entities = append(b.entities, e)
	return b
}

// Build returns the text and its entities, or the first validation error.
func (b *MessageBuilder) Build() (string, []MessageEntity, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	return b.text.String(), b.entities, nil
}

// write appends s and returns its length in UTF-16 code units.
func (b *MessageBuilder) write(s string) int {
	b.text.WriteString(s)
	n := len(utf16.Encode([]rune(s)))
	b.units += n
	return n
}

func entityPrefix(t MessageEntityType) string {
	switch t {
	case EntityBotCommand:
		return "/"
	case EntityCashtag:
		return "$"
	case EntityHashtag:
		return "#"
	case EntityMention, EntityTextMention:
		return "@"
	}
	return ""
}
