package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityText_UTF16(t *testing.T) {
	// "👍" is one rune but two UTF-16 code units.
	text := "👍 see #go now"
	e := MessageEntity{Type: EntityHashtag, Offset: 7, Length: 3}
	assert.Equal(t, "#go", EntityText(text, e))

	assert.Equal(t, "", EntityText(text, MessageEntity{Offset: 100, Length: 3}))
	assert.Equal(t, "now", EntityText(text, MessageEntity{Offset: 11, Length: 50}))
}

func TestEntitiesByType(t *testing.T) {
	text := "/start and /help #tag"
	entities := []MessageEntity{
		{Type: EntityBotCommand, Offset: 0, Length: 6},
		{Type: EntityBotCommand, Offset: 11, Length: 5},
		{Type: EntityHashtag, Offset: 17, Length: 4},
	}

	assert.Equal(t, []string{"/start", "/help"}, EntitiesByType(text, entities, EntityBotCommand))
	assert.Equal(t, []string{"#tag"}, EntitiesByType(text, entities, EntityHashtag))
	assert.Equal(t, []string{}, EntitiesByType(text, entities, EntityURL))
	assert.Equal(t, []string{}, EntitiesByType(text, nil, EntityURL))
}

func TestMessage_EntitiesByType(t *testing.T) {
	var nilMsg *Message
	assert.Equal(t, []string{}, nilMsg.EntitiesByType(EntityBotCommand))
	assert.Equal(t, "", nilMsg.Command())

	m := &Message{Text: "/start@my_bot please", Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 13}}}
	assert.Equal(t, []string{"/start@my_bot"}, m.EntitiesByType(EntityBotCommand))
	assert.Equal(t, "start", m.Command())

	plain := &Message{Text: "hello"}
	assert.Equal(t, "", plain.Command())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		entity, name, mention string
	}{
		{"/help", "help", ""},
		{"/start@my_bot", "start", "my_bot"},
		{"/", "", ""},
		{"/a@", "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			name, mention := ParseCommand(tt.entity)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.mention, mention)
		})
	}
}

func TestMessageBuilder(t *testing.T) {
	user := &User{ID: 7, FirstName: "Ann"}

	text, entities, err := NewMessageBuilder().
		Append("Try ").
		AppendEntity("help", EntityBotCommand).
		Append(" or ask ").
		AppendEntity("Ann", EntityTextMention, WithUser(user)).
		Append(" ✨ ").
		AppendEntity("docs", EntityTextLink, WithURL("https://core.telegram.org/bots/api")).
		AppendEntity("fmt.Println()", EntityPre, WithLanguage("go")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "Try /help or ask @Ann ✨ docsfmt.Println()", text)
	require.Len(t, entities, 4)

	assert.Equal(t, MessageEntity{Type: EntityBotCommand, Offset: 4, Length: 5}, entities[0])
	assert.Equal(t, 17, entities[1].Offset)
	assert.Equal(t, 4, entities[1].Length)
	assert.Same(t, user, entities[1].User)

	// "✨" is a single UTF-16 code unit, so the link starts right after it and a space.
	assert.Equal(t, 24, entities[2].Offset)
	assert.Equal(t, "https://core.telegram.org/bots/api", entities[2].URL)
	assert.Equal(t, "go", entities[3].Language)

	for _, e := range entities {
		assert.NotEmpty(t, EntityText(text, e))
	}
	assert.Equal(t, []string{"/help"}, EntitiesByType(text, entities, EntityBotCommand))
}

func TestMessageBuilder_Prefixes(t *testing.T) {
	text, _, err := NewMessageBuilder().
		AppendEntity("USD", EntityCashtag).
		Append(" ").
		AppendEntity("news", EntityHashtag).
		Append(" ").
		AppendEntity("durov", EntityMention).
		Append(" ").
		AppendEntity("bold", EntityBold).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "$USD #news @durov bold", text)
}

func TestMessageBuilder_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		b    *MessageBuilder
	}{
		{"url on bold", NewMessageBuilder().AppendEntity("x", EntityBold, WithURL("https://example.com"))},
		{"user on mention", NewMessageBuilder().AppendEntity("x", EntityMention, WithUser(&User{ID: 1}))},
		{"language on code", NewMessageBuilder().AppendEntity("x", EntityCode, WithLanguage("go"))},
		{"sentinel type", NewMessageBuilder().AppendEntity("x", EntityUnknown)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Later calls must not clear the first error.
			text, entities, err := tt.b.Append("more").Build()
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Empty(t, text)
			assert.Nil(t, entities)
		})
	}
}
