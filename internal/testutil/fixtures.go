package testutil

import (
	"fmt"
	"testing"

	"github.com/runixer/botapi/pkg/hydrate"
	"github.com/runixer/botapi/pkg/telegram"
)

// TestUserID is the default user ID for tests.
const TestUserID int64 = 123

// TestChatID is the default private chat ID for tests.
const TestChatID int64 = 42

// TestUser returns a standard test user.
func TestUser() *telegram.User {
	return &telegram.User{
		ID:        TestUserID,
		Username:  "testuser",
		FirstName: "Test",
		LastName:  "User",
	}
}

// TestChat returns a private chat with the test user.
func TestChat() *telegram.Chat {
	return &telegram.Chat{
		ID:        TestChatID,
		Type:      telegram.ChatPrivate,
		FirstName: "Test",
	}
}

// HelpUpdateJSON is a getUpdates result carrying a single /help command.
const HelpUpdateJSON = `[{"update_id":100,"message":{"message_id":1,"date":0,` +
	`"chat":{"id":42,"type":"private"},"text":"/help",` +
	`"entities":[{"type":"bot_command","offset":0,"length":5}]}}]`

// TextUpdate builds an update with a text message from the test user. A
// leading "/" word is marked as a bot_command entity.
func TextUpdate(updateID int64, text string) telegram.Update {
	msg := &telegram.Message{
		MessageID: int(updateID),
		From:      TestUser(),
		Chat:      TestChat(),
		Text:      text,
	}
	if len(text) > 1 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []telegram.MessageEntity{{Type: telegram.EntityBotCommand, Offset: 0, Length: end}}
	}
	return telegram.Update{UpdateID: updateID, Message: msg}
}

// Updates builds plain text updates with the given ids.
func Updates(ids ...int64) []telegram.Update {
	out := make([]telegram.Update, 0, len(ids))
	for _, id := range ids {
		out = append(out, TextUpdate(id, fmt.Sprintf("message %d", id)))
	}
	return out
}

// HydrateUpdates decodes a raw getUpdates result the way the client does.
func HydrateUpdates(t *testing.T, raw string) []telegram.Update {
	t.Helper()
	value, err := hydrate.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	updates, err := hydrate.SliceOf[telegram.Update](value)
	if err != nil {
		t.Fatalf("failed to hydrate fixture: %v", err)
	}
	return updates
}
