// Package bot is a small command bot: /help, /start, and a polite refusal
// for everything else.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/runixer/botapi/pkg/telegram"
)

const (
	commandHelp    = "help"
	commandStart   = "start"
	commandUnknown = "other"
)

// Commands is the menu published with setMyCommands.
var Commands = []telegram.BotCommand{
	{Command: commandHelp, Description: "Show what this bot can do"},
	{Command: commandStart, Description: "Say hello"},
}

type Bot struct {
	api      telegram.BotAPI
	name     string
	username string
	logger   *slog.Logger
}

// NewBot creates a bot replying as name. username is the bot's own
// @username; commands addressed to another bot ("/help@other_bot") are not
// treated as commands.
func NewBot(logger *slog.Logger, api telegram.BotAPI, name, username string) *Bot {
	return &Bot{
		api:      api,
		name:     name,
		username: username,
		logger:   logger.With("component", "bot"),
	}
}

// Name is the bot name used in replies.
func (b *Bot) Name() string {
	return b.name
}

// SetCommands publishes the command menu.
func (b *Bot) SetCommands(ctx context.Context) error {
	return b.api.SetMyCommands(ctx, telegram.SetMyCommandsRequest{Commands: Commands})
}

// HandleUpdate implements polling.Handler. Only messages are handled; other
// update kinds are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}

	logger := b.logger.With(
		"update_id", update.UpdateID,
		"chat_id", msg.Chat.ID,
	)
	if msg.From != nil {
		logger = logger.With("user_id", msg.From.ID, "username", msg.From.Username)
	}
	logger.Debug("Received message")

	start := time.Now()
	command, text := b.reply(msg)

	b.sendAction(ctx, msg, telegram.ActionTyping)
	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:          msg.Chat.ID,
		MessageThreadID: intPtrOrNil(msg.MessageThreadID),
		Text:            text,
	})
	RecordCommand(command, time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("failed to reply to %s: %w", command, err)
	}

	if command == commandStart {
		b.react(ctx, msg, "👋")
	}
	logger.Info("Replied", "command", command)
	return nil
}

// reply picks the answer for msg. The first recognised bot command addressed
// to this bot wins.
func (b *Bot) reply(msg *telegram.Message) (command, text string) {
	for _, entity := range msg.EntitiesByType(telegram.EntityBotCommand) {
		name, mention := telegram.ParseCommand(entity)
		if mention != "" && !strings.EqualFold(mention, b.username) {
			continue
		}
		switch name {
		case commandHelp:
			return commandHelp, fmt.Sprintf("This is a /help message for %s.", b.name)
		case commandStart:
			return commandStart, fmt.Sprintf("/start command processed by %s for %s.", b.name, greetingName(msg.From))
		}
	}
	return commandUnknown, fmt.Sprintf("Sorry, %s can't help you with %q", b.name, msg.Text)
}

// greetingName prefers the username, then the first and last names.
func greetingName(u *telegram.User) string {
	switch {
	case u == nil:
		return "stranger"
	case u.Username != "":
		return u.Username
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return "stranger"
}

func intPtrOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func (b *Bot) sendAction(ctx context.Context, msg *telegram.Message, action telegram.ChatAction) {
	req := telegram.SendChatActionRequest{
		ChatID:          msg.Chat.ID,
		MessageThreadID: intPtrOrNil(msg.MessageThreadID),
		Action:          action,
	}
	if err := b.api.SendChatAction(ctx, req); err != nil {
		b.logger.Warn("failed to send action", "action", action, "error", err)
	}
}

func (b *Bot) react(ctx context.Context, msg *telegram.Message, emoji string) {
	req := telegram.SetMessageReactionRequest{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Reaction:  []telegram.ReactionType{{Type: "emoji", Emoji: emoji}},
	}
	if err := b.api.SetMessageReaction(ctx, req); err != nil {
		b.logger.Warn("failed to set reaction", "error", err)
	}
}
