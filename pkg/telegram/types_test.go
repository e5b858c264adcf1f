package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runixer/botapi/pkg/hydrate"
)

func decodeInto[T any](t *testing.T, text string) *T {
	t.Helper()
	raw, err := hydrate.Decode([]byte(text))
	require.NoError(t, err)
	out, err := hydrate.Into[T](raw)
	require.NoError(t, err)
	return out
}

func TestUpdate_Kind(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"message", `{"update_id":1,"message":{"message_id":1}}`, "message"},
		{"edited", `{"update_id":2,"edited_message":{"message_id":1}}`, "edited_message"},
		{"channel post", `{"update_id":3,"channel_post":{"message_id":1}}`, "channel_post"},
		{"callback", `{"update_id":4,"callback_query":{"id":"c","chat_instance":"x","from":{"id":1}}}`, "callback_query"},
		{"inline", `{"update_id":5,"inline_query":{"id":"q","query":"cats","offset":""}}`, "inline_query"},
		{"poll", `{"update_id":6,"poll":{"id":"p","question":"?","options":[]}}`, "poll"},
		{"pre checkout", `{"update_id":7,"pre_checkout_query":{"id":"q","currency":"EUR","total_amount":100}}`, "pre_checkout_query"},
		{"member", `{"update_id":8,"my_chat_member":{"date":1}}`, "my_chat_member"},
		{"unknown payload", `{"update_id":9,"business_message":{"message_id":1}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := decodeInto[Update](t, tt.raw)
			assert.Equal(t, tt.want, u.Kind())
		})
	}

	var nilUpdate *Update
	assert.Equal(t, "", nilUpdate.Kind())
}

func TestUpdate_UnknownPayloadIsKept(t *testing.T) {
	u := decodeInto[Update](t, `{"update_id":9,"business_message":{"message_id":1,"text":"hi"}}`)

	v, ok := hydrate.Lookup(u, "business_message")
	require.True(t, ok)
	obj, ok := v.(*hydrate.Object)
	require.True(t, ok, "expected *hydrate.Object, got %T", v)
	assert.Equal(t, "hi", obj.String("text"))
}

func TestChat_TypeCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want ChatType
	}{
		{`{"id":1,"type":"private"}`, ChatPrivate},
		{`{"id":1,"type":"group"}`, ChatGroup},
		{`{"id":1,"type":"supergroup"}`, ChatSupergroup},
		{`{"id":1,"type":"channel"}`, ChatChannel},
		{`{"id":1,"type":"secret"}`, ChatTypeUnknown},
		{`{"id":1,"type":7}`, ChatTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := decodeInto[Chat](t, tt.raw)
			assert.Equal(t, tt.want, c.Type)
		})
	}
}

func TestMessageEntity_TypeCoercion(t *testing.T) {
	m := decodeInto[Message](t, `{"message_id":1,"text":"hi @bob",
		"entities":[{"type":"mention","offset":3,"length":4},{"type":"sparkle","offset":0,"length":2}]}`)

	require.Len(t, m.Entities, 2)
	assert.Equal(t, EntityMention, m.Entities[0].Type)
	assert.Equal(t, EntityUnknown, m.Entities[1].Type)
	assert.False(t, m.Entities[1].Type.IsKnown())
}

func TestEnums_RoundTrip(t *testing.T) {
	for _, et := range MessageEntityTypes() {
		assert.Equal(t, et, ParseMessageEntityType(et.String()))
		assert.True(t, et.IsKnown())
	}
	for _, ct := range ChatTypes() {
		assert.Equal(t, ct, ParseChatType(ct.String()))
		assert.True(t, ct.IsKnown())
	}
	assert.Equal(t, EntityUnknown, ParseMessageEntityType(""))
	assert.Equal(t, ChatTypeUnknown, ParseChatType("Private"))
	assert.False(t, EntityUnknown.IsKnown())
	assert.False(t, ChatTypeUnknown.IsKnown())
}

func TestLocation_ResolvedPerParent(t *testing.T) {
	m := decodeInto[Message](t, `{"message_id":1,
		"location":{"latitude":52.52,"longitude":13.4},
		"chat":{"id":-100,"type":"supergroup","location":{"location":{"latitude":1.5,"longitude":2.5},"address":"Berlin"}}}`)

	require.NotNil(t, m.Location)
	assert.Equal(t, 52.52, m.Location.Latitude)

	require.NotNil(t, m.Chat.Location)
	assert.Equal(t, "Berlin", m.Chat.Location.Address)
	require.NotNil(t, m.Chat.Location.Location)
	assert.Equal(t, 2.5, m.Chat.Location.Location.Longitude)
}

func TestMessage_FromAlias(t *testing.T) {
	m := decodeInto[Message](t, `{"message_id":1,"from":{"id":5,"is_bot":true,"first_name":"Bot"}}`)

	require.NotNil(t, m.From)
	assert.True(t, m.From.IsBot)

	from, ok := hydrate.Lookup(m, "from")
	require.True(t, ok)
	assert.Same(t, m.From, from)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"from":{"id":5`)
}

func TestMessage_ForwardOrigin(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		m := decodeInto[Message](t, `{"message_id":1,"forward_origin":{"type":"user","date":10,"sender_user":{"id":3,"first_name":"Eve"}}}`)
		origin, ok := m.ForwardOrigin.(*MessageOriginUser)
		require.True(t, ok, "expected *MessageOriginUser, got %T", m.ForwardOrigin)
		assert.Equal(t, "Eve", origin.SenderUser.FirstName)
		assert.Equal(t, int64(10), origin.OriginDate())
	})

	t.Run("hidden user", func(t *testing.T) {
		m := decodeInto[Message](t, `{"message_id":1,"forward_origin":{"type":"hidden_user","date":11,"sender_user_name":"Anon"}}`)
		origin, ok := m.ForwardOrigin.(*MessageOriginHiddenUser)
		require.True(t, ok)
		assert.Equal(t, "Anon", origin.SenderUserName)
	})

	t.Run("channel", func(t *testing.T) {
		m := decodeInto[Message](t, `{"message_id":1,"forward_origin":{"type":"channel","date":12,"message_id":77,"chat":{"id":-1001,"type":"channel","title":"News"}}}`)
		origin, ok := m.ForwardOrigin.(*MessageOriginChannel)
		require.True(t, ok)
		assert.Equal(t, 77, origin.MessageID)
		assert.Equal(t, ChatChannel, origin.Chat.Type)
	})

	t.Run("unknown origin stays in extra", func(t *testing.T) {
		m := decodeInto[Message](t, `{"message_id":1,"forward_origin":{"type":"story","date":13}}`)
		assert.Nil(t, m.ForwardOrigin)
		v, ok := m.ExtraField("forward_origin")
		require.True(t, ok)
		obj, ok := v.(*hydrate.Object)
		require.True(t, ok, "expected *hydrate.Object, got %T", v)
		assert.Equal(t, "story", obj.String("type"))
	})
}

func TestChatMemberUpdated_Variants(t *testing.T) {
	u := decodeInto[Update](t, `{"update_id":1,"my_chat_member":{
		"chat":{"id":-5,"type":"group"},"from":{"id":1,"first_name":"A"},"date":100,
		"old_chat_member":{"status":"left","user":{"id":9,"is_bot":true,"first_name":"Bot"}},
		"new_chat_member":{"status":"restricted","user":{"id":9,"is_bot":true,"first_name":"Bot"},
			"is_member":true,"until_date":0,"can_send_messages":false,"can_send_polls":true}}}`)

	require.NotNil(t, u.MyChatMember)
	old, ok := u.MyChatMember.OldChatMember.(*ChatMemberLeft)
	require.True(t, ok, "expected *ChatMemberLeft, got %T", u.MyChatMember.OldChatMember)
	assert.Equal(t, int64(9), old.MemberUser().ID)

	restricted, ok := u.MyChatMember.NewChatMember.(*ChatMemberRestricted)
	require.True(t, ok, "expected *ChatMemberRestricted, got %T", u.MyChatMember.NewChatMember)
	assert.Equal(t, "restricted", restricted.MemberStatus())
	assert.True(t, restricted.IsMember)
	assert.True(t, restricted.CanSendPolls)
	assert.False(t, restricted.CanSendMessages)
}

func TestHydrate_LargeIdentifiers(t *testing.T) {
	u := decodeInto[Update](t, `{"update_id":9007199254740993,"message":{"message_id":1,"chat":{"id":-1009007199254740993,"type":"supergroup"}}}`)
	assert.Equal(t, int64(9007199254740993), u.UpdateID)
	assert.Equal(t, int64(-1009007199254740993), u.Message.Chat.ID)
}

func TestHydrate_NewFieldsAreReachable(t *testing.T) {
	u := decodeInto[User](t, `{"id":1,"first_name":"A","added_to_attachment_menu":true}`)

	v, ok := hydrate.Lookup(u, "added_to_attachment_menu")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestMediaComponents(t *testing.T) {
	m := decodeInto[Message](t, `{"message_id":1,
		"caption":"clip","caption_entities":[{"type":"bold","offset":0,"length":4}],
		"video":{"file_id":"v","file_unique_id":"uv","width":640,"height":360,"duration":12,
			"file_name":"clip.mp4","mime_type":"video/mp4","file_size":2048,
			"thumbnail":{"file_id":"t","file_unique_id":"ut","width":90,"height":51}}}`)

	require.NotNil(t, m.Video)
	assert.Equal(t, "v", m.Video.FileID)
	assert.Equal(t, 640, m.Video.Width)
	assert.Equal(t, 12, m.Video.Duration)
	assert.Equal(t, "clip.mp4", m.Video.FileName)
	assert.Equal(t, int64(2048), m.Video.FileSize)
	require.NotNil(t, m.Video.Thumbnail)
	assert.Equal(t, 51, m.Video.Thumbnail.Height)

	assert.Equal(t, "clip", m.Caption)
	require.Len(t, m.CaptionEntities, 1)
	assert.Equal(t, EntityBold, m.CaptionEntities[0].Type)
}
