package telegram

import (
	"context"
	"fmt"

	"github.com/runixer/botapi/pkg/hydrate"
)

// BotAPI defines the interface for the Telegram Bot API methods we use.
// This allows for easier mocking in tests.
type BotAPI interface {
	GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error)
	GetMe(ctx context.Context) (*User, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
	SendChatAction(ctx context.Context, req SendChatActionRequest) error
	SetMyCommands(ctx context.Context, req SetMyCommandsRequest) error
	GetFile(ctx context.Context, req GetFileRequest) (*File, error)
	SetMessageReaction(ctx context.Context, req SetMessageReactionRequest) error
	GetToken() string
}

var _ BotAPI = (*Client)(nil)

type validator interface {
	validate() error
}

// prepare checks preconditions and flattens the request into Params.
func prepare(method string, req any) (Params, error) {
	if v, ok := req.(validator); ok {
		if err := v.validate(); err != nil {
			recordError(method, errorTypePrecondition)
			return nil, fmt.Errorf("%s: %w", method, err)
		}
	}
	return Params(hydrate.Fields(req)), nil
}

// callObject invokes method and hydrates its object result into a T.
func callObject[T any](ctx context.Context, c *Client, method string, req any) (*T, error) {
	params, err := prepare(method, req)
	if err != nil {
		return nil, err
	}
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	out, err := hydrate.Into[T](raw)
	if err != nil {
		recordError(method, errorTypeDecode)
		return nil, fmt.Errorf("failed to hydrate %s result: %w", method, err)
	}
	return out, nil
}

// callList invokes method and hydrates its array result.
func callList[T any](ctx context.Context, c *Client, method string, req any) ([]T, error) {
	params, err := prepare(method, req)
	if err != nil {
		return nil, err
	}
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	out, err := hydrate.SliceOf[T](raw)
	if err != nil {
		recordError(method, errorTypeDecode)
		return nil, fmt.Errorf("failed to hydrate %s result: %w", method, err)
	}
	return out, nil
}

// callTrue invokes a method whose result is the literal true.
func callTrue(ctx context.Context, c *Client, method string, req any) error {
	params, err := prepare(method, req)
	if err != nil {
		return err
	}
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if ok, _ := raw.(bool); !ok {
		recordError(method, errorTypeDecode)
		return fmt.Errorf("%s: unexpected result %v", method, raw)
	}
	return nil
}

// GetMe returns basic information about the bot.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return callObject[User](ctx, c, "getMe", nil)
}

// LogOut logs the bot out from the cloud Bot API server.
func (c *Client) LogOut(ctx context.Context) error {
	return callTrue(ctx, c, "logOut", nil)
}

// Close closes the bot instance before moving it from one local server to another.
func (c *Client) Close(ctx context.Context) error {
	return callTrue(ctx, c, "close", nil)
}

// SetWebhook specifies a URL and receives incoming updates via an outgoing webhook.
func (c *Client) SetWebhook(ctx context.Context, req SetWebhookRequest) error {
	return callTrue(ctx, c, "setWebhook", req)
}

// DeleteWebhook removes webhook integration so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, req DeleteWebhookRequest) error {
	return callTrue(ctx, c, "deleteWebhook", req)
}

// GetWebhookInfo returns the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	return callObject[WebhookInfo](ctx, c, "getWebhookInfo", nil)
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	return callObject[Message](ctx, c, "sendMessage", req)
}

// ForwardMessage forwards a message of any kind.
func (c *Client) ForwardMessage(ctx context.Context, req ForwardMessageRequest) (*Message, error) {
	return callObject[Message](ctx, c, "forwardMessage", req)
}

// CopyMessage copies a message without a link to the original.
func (c *Client) CopyMessage(ctx context.Context, req CopyMessageRequest) (*MessageID, error) {
	return callObject[MessageID](ctx, c, "copyMessage", req)
}

// SendPhoto sends a photo, uploaded or referenced.
func (c *Client) SendPhoto(ctx context.Context, req SendPhotoRequest) (*Message, error) {
	return callObject[Message](ctx, c, "sendPhoto", req)
}

// SendDocument sends a general file, uploaded or referenced.
func (c *Client) SendDocument(ctx context.Context, req SendDocumentRequest) (*Message, error) {
	return callObject[Message](ctx, c, "sendDocument", req)
}

// SendLocation sends a point on the map.
func (c *Client) SendLocation(ctx context.Context, req SendLocationRequest) (*Message, error) {
	return callObject[Message](ctx, c, "sendLocation", req)
}

// SendChatAction tells the user that something is happening on the bot's side.
func (c *Client) SendChatAction(ctx context.Context, req SendChatActionRequest) error {
	return callTrue(ctx, c, "sendChatAction", req)
}

// SendPoll sends a native poll.
func (c *Client) SendPoll(ctx context.Context, req SendPollRequest) (*Message, error) {
	return callObject[Message](ctx, c, "sendPoll", req)
}

// EditMessageText edits a text message. For inline messages the server
// answers with true and the returned message is nil.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) (*Message, error) {
	const method = "editMessageText"
	params, err := prepare(method, req)
	if err != nil {
		return nil, err
	}
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if ok, isBool := raw.(bool); isBool && ok {
		return nil, nil
	}
	msg, err := hydrate.Into[Message](raw)
	if err != nil {
		recordError(method, errorTypeDecode)
		return nil, fmt.Errorf("failed to hydrate %s result: %w", method, err)
	}
	return msg, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, req DeleteMessageRequest) error {
	return callTrue(ctx, c, "deleteMessage", req)
}

// AnswerCallbackQuery answers a callback query sent from an inline keyboard.
func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	return callTrue(ctx, c, "answerCallbackQuery", req)
}

// AnswerPreCheckoutQuery confirms or rejects a pending checkout.
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, req AnswerPreCheckoutQueryRequest) error {
	return callTrue(ctx, c, "answerPreCheckoutQuery", req)
}

// SetMyCommands changes the list of the bot's commands.
func (c *Client) SetMyCommands(ctx context.Context, req SetMyCommandsRequest) error {
	return callTrue(ctx, c, "setMyCommands", req)
}

// GetMyCommands returns the current list of the bot's commands.
func (c *Client) GetMyCommands(ctx context.Context, req GetMyCommandsRequest) ([]BotCommand, error) {
	return callList[BotCommand](ctx, c, "getMyCommands", req)
}

// GetFile returns a File object with a file_path that can be used to download the file.
func (c *Client) GetFile(ctx context.Context, req GetFileRequest) (*File, error) {
	return callObject[File](ctx, c, "getFile", req)
}

// SetMessageReaction sets a reaction on a message.
func (c *Client) SetMessageReaction(ctx context.Context, req SetMessageReactionRequest) error {
	return callTrue(ctx, c, "setMessageReaction", req)
}
