package telegram

import (
	"regexp"
	"unicode/utf8"
)

// Request parameter structs. Each is flattened into Params by hydrate.Fields,
// so omitempty decides whether a zero value is sent at all.
//
// MessageThreadID is *int rather than int: the API reads message_thread_id=0
// as "topic 0" and rejects it in chats that are not forums.

// GetUpdatesRequest represents the parameters for the getUpdates method.
type GetUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

func (r GetUpdatesRequest) validate() error {
	if r.Limit < 0 || r.Limit > 100 {
		return preconditionf("limit must be between 1 and 100, got %d", r.Limit)
	}
	if r.Timeout < 0 {
		return preconditionf("timeout must not be negative, got %d", r.Timeout)
	}
	return nil
}

// SetWebhookRequest represents the parameters for the setWebhook method.
type SetWebhookRequest struct {
	URL                string     `json:"url"`
	Certificate        *InputFile `json:"certificate,omitempty"`
	IPAddress          string     `json:"ip_address,omitempty"`
	MaxConnections     int        `json:"max_connections,omitempty"`
	AllowedUpdates     []string   `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool       `json:"drop_pending_updates,omitempty"`
	SecretToken        string     `json:"secret_token,omitempty"`
}

var secretTokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

func (r SetWebhookRequest) validate() error {
	if r.MaxConnections != 0 && (r.MaxConnections < 1 || r.MaxConnections > 100) {
		return preconditionf("max_connections must be between 1 and 100, got %d", r.MaxConnections)
	}
	if r.SecretToken != "" && !secretTokenRe.MatchString(r.SecretToken) {
		return preconditionf("secret_token must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
	}
	return nil
}

// DeleteWebhookRequest represents the parameters for the deleteWebhook method.
type DeleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

// SendMessageRequest represents the parameters for the sendMessage method.
type SendMessageRequest struct {
	ChatID                int64           `json:"chat_id"`
	MessageThreadID       *int            `json:"message_thread_id,omitempty"`
	Text                  string          `json:"text"`
	ParseMode             ParseMode       `json:"parse_mode,omitempty"`
	Entities              []MessageEntity `json:"entities,omitempty"`
	DisableWebPagePreview bool            `json:"disable_web_page_preview,omitempty"`
	DisableNotification   bool            `json:"disable_notification,omitempty"`
	ProtectContent        bool            `json:"protect_content,omitempty"`
	ReplyToMessageID      int             `json:"reply_to_message_id,omitempty"`
	ReplyMarkup           ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (r SendMessageRequest) validate() error {
	if r.ChatID == 0 {
		return preconditionf("chat_id must be set")
	}
	if err := checkText("text", r.Text, 1, 4096); err != nil {
		return err
	}
	if err := checkMarkup(r.ParseMode, len(r.Entities), "entities"); err != nil {
		return err
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// ForwardMessageRequest represents the parameters for the forwardMessage method.
type ForwardMessageRequest struct {
	ChatID              int64 `json:"chat_id"`
	MessageThreadID     *int  `json:"message_thread_id,omitempty"`
	FromChatID          int64 `json:"from_chat_id"`
	DisableNotification bool  `json:"disable_notification,omitempty"`
	ProtectContent      bool  `json:"protect_content,omitempty"`
	MessageID           int   `json:"message_id"`
}

func (r ForwardMessageRequest) validate() error {
	if r.ChatID == 0 || r.FromChatID == 0 || r.MessageID == 0 {
		return preconditionf("chat_id, from_chat_id and message_id must be set")
	}
	return nil
}

// CopyMessageRequest represents the parameters for the copyMessage method.
// A nil Caption keeps the original caption; a pointer to "" removes it.
type CopyMessageRequest struct {
	ChatID              int64           `json:"chat_id"`
	MessageThreadID     *int            `json:"message_thread_id,omitempty"`
	FromChatID          int64           `json:"from_chat_id"`
	MessageID           int             `json:"message_id"`
	Caption             *string         `json:"caption,omitempty"`
	ParseMode           ParseMode       `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity `json:"caption_entities,omitempty"`
	DisableNotification bool            `json:"disable_notification,omitempty"`
	ProtectContent      bool            `json:"protect_content,omitempty"`
	ReplyToMessageID    int             `json:"reply_to_message_id,omitempty"`
	ReplyMarkup         ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (r CopyMessageRequest) validate() error {
	if r.ChatID == 0 || r.FromChatID == 0 || r.MessageID == 0 {
		return preconditionf("chat_id, from_chat_id and message_id must be set")
	}
	if r.Caption != nil {
		if err := checkText("caption", *r.Caption, 0, 1024); err != nil {
			return err
		}
	}
	if err := checkMarkup(r.ParseMode, len(r.CaptionEntities), "caption_entities"); err != nil {
		return err
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// SendPhotoRequest represents the parameters for the sendPhoto method.
type SendPhotoRequest struct {
	ChatID              int64           `json:"chat_id"`
	MessageThreadID     *int            `json:"message_thread_id,omitempty"`
	Photo               InputMedia      `json:"photo"`
	Caption             string          `json:"caption,omitempty"`
	ParseMode           ParseMode       `json:"parse_mode,omitempty"`
	CaptionEntities     []MessageEntity `json:"caption_entities,omitempty"`
	HasSpoiler          bool            `json:"has_spoiler,omitempty"`
	DisableNotification bool            `json:"disable_notification,omitempty"`
	ProtectContent      bool            `json:"protect_content,omitempty"`
	ReplyToMessageID    int             `json:"reply_to_message_id,omitempty"`
	ReplyMarkup         ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (r SendPhotoRequest) validate() error {
	if r.ChatID == 0 {
		return preconditionf("chat_id must be set")
	}
	if err := checkMedia("photo", r.Photo); err != nil {
		return err
	}
	if err := checkText("caption", r.Caption, 0, 1024); err != nil {
		return err
	}
	if err := checkMarkup(r.ParseMode, len(r.CaptionEntities), "caption_entities"); err != nil {
		return err
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// SendDocumentRequest represents the parameters for the sendDocument method.
type SendDocumentRequest struct {
	ChatID                      int64           `json:"chat_id"`
	MessageThreadID             *int            `json:"message_thread_id,omitempty"`
	Document                    InputMedia      `json:"document"`
	Thumbnail                   *InputFile      `json:"thumbnail,omitempty"`
	Caption                     string          `json:"caption,omitempty"`
	ParseMode                   ParseMode       `json:"parse_mode,omitempty"`
	CaptionEntities             []MessageEntity `json:"caption_entities,omitempty"`
	DisableContentTypeDetection bool            `json:"disable_content_type_detection,omitempty"`
	DisableNotification         bool            `json:"disable_notification,omitempty"`
	ProtectContent              bool            `json:"protect_content,omitempty"`
	ReplyToMessageID            int             `json:"reply_to_message_id,omitempty"`
	ReplyMarkup                 ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (r SendDocumentRequest) validate() error {
	if r.ChatID == 0 {
		return preconditionf("chat_id must be set")
	}
	if err := checkMedia("document", r.Document); err != nil {
		return err
	}
	if err := checkText("caption", r.Caption, 0, 1024); err != nil {
		return err
	}
	if err := checkMarkup(r.ParseMode, len(r.CaptionEntities), "caption_entities"); err != nil {
		return err
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// SendLocationRequest represents the parameters for the sendLocation method.
type SendLocationRequest struct {
	ChatID               int64       `json:"chat_id"`
	MessageThreadID      *int        `json:"message_thread_id,omitempty"`
	Latitude             float64     `json:"latitude"`
	Longitude            float64     `json:"longitude"`
	HorizontalAccuracy   float64     `json:"horizontal_accuracy,omitempty"`
	LivePeriod           int         `json:"live_period,omitempty"`
	Heading              int         `json:"heading,omitempty"`
	ProximityAlertRadius int         `json:"proximity_alert_radius,omitempty"`
	DisableNotification  bool        `json:"disable_notification,omitempty"`
	ProtectContent       bool        `json:"protect_content,omitempty"`
	ReplyToMessageID     int         `json:"reply_to_message_id,omitempty"`
	ReplyMarkup          ReplyMarkup `json:"reply_markup,omitempty"`
}

func (r SendLocationRequest) validate() error {
	switch {
	case r.ChatID == 0:
		return preconditionf("chat_id must be set")
	case r.Latitude < -90 || r.Latitude > 90:
		return preconditionf("latitude must be between -90 and 90, got %v", r.Latitude)
	case r.Longitude < -180 || r.Longitude > 180:
		return preconditionf("longitude must be between -180 and 180, got %v", r.Longitude)
	case r.HorizontalAccuracy < 0 || r.HorizontalAccuracy > 1500:
		return preconditionf("horizontal_accuracy must be between 0 and 1500, got %v", r.HorizontalAccuracy)
	case r.LivePeriod != 0 && (r.LivePeriod < 60 || r.LivePeriod > 86400):
		return preconditionf("live_period must be between 60 and 86400, got %d", r.LivePeriod)
	case r.Heading < 0 || r.Heading > 360:
		return preconditionf("heading must be between 1 and 360, got %d", r.Heading)
	case r.ProximityAlertRadius < 0 || r.ProximityAlertRadius > 100000:
		return preconditionf("proximity_alert_radius must be between 1 and 100000, got %d", r.ProximityAlertRadius)
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// SendChatActionRequest represents the parameters for the sendChatAction method.
type SendChatActionRequest struct {
	ChatID          int64      `json:"chat_id"`
	MessageThreadID *int       `json:"message_thread_id,omitempty"`
	Action          ChatAction `json:"action"`
}

func (r SendChatActionRequest) validate() error {
	if r.ChatID == 0 || r.Action == "" {
		return preconditionf("chat_id and action must be set")
	}
	return nil
}

// SendPollRequest represents the parameters for the sendPoll method.
type SendPollRequest struct {
	ChatID                int64           `json:"chat_id"`
	MessageThreadID       *int            `json:"message_thread_id,omitempty"`
	Question              string          `json:"question"`
	Options               []string        `json:"options"`
	IsAnonymous           *bool           `json:"is_anonymous,omitempty"`
	Type                  PollType        `json:"type,omitempty"`
	AllowsMultipleAnswers bool            `json:"allows_multiple_answers,omitempty"`
	CorrectOptionID       *int            `json:"correct_option_id,omitempty"`
	Explanation           string          `json:"explanation,omitempty"`
	ExplanationParseMode  ParseMode       `json:"explanation_parse_mode,omitempty"`
	ExplanationEntities   []MessageEntity `json:"explanation_entities,omitempty"`
	OpenPeriod            int             `json:"open_period,omitempty"`
	CloseDate             int64           `json:"close_date,omitempty"`
	IsClosed              bool            `json:"is_closed,omitempty"`
	DisableNotification   bool            `json:"disable_notification,omitempty"`
	ProtectContent        bool            `json:"protect_content,omitempty"`
	ReplyToMessageID      int             `json:"reply_to_message_id,omitempty"`
	ReplyMarkup           ReplyMarkup     `json:"reply_markup,omitempty"`
}

func (r SendPollRequest) validate() error {
	if r.ChatID == 0 {
		return preconditionf("chat_id must be set")
	}
	if err := checkText("question", r.Question, 1, 300); err != nil {
		return err
	}
	if len(r.Options) < 2 || len(r.Options) > 10 {
		return preconditionf("a poll needs 2-10 options, got %d", len(r.Options))
	}
	for _, o := range r.Options {
		if err := checkText("option", o, 1, 100); err != nil {
			return err
		}
	}
	switch r.Type {
	case "", PollRegular:
	case PollQuiz:
		if r.CorrectOptionID == nil {
			return preconditionf("correct_option_id must be set for quiz polls")
		}
	default:
		return preconditionf("unexpected poll type %q", r.Type)
	}
	if r.CorrectOptionID != nil && (*r.CorrectOptionID < 0 || *r.CorrectOptionID >= len(r.Options)) {
		return preconditionf("correct_option_id %d is out of range", *r.CorrectOptionID)
	}
	if err := checkText("explanation", r.Explanation, 0, 200); err != nil {
		return err
	}
	if err := checkMarkup(r.ExplanationParseMode, len(r.ExplanationEntities), "explanation_entities"); err != nil {
		return err
	}
	if r.OpenPeriod != 0 && r.CloseDate != 0 {
		return preconditionf("open_period and close_date are mutually exclusive")
	}
	if r.OpenPeriod != 0 && (r.OpenPeriod < 5 || r.OpenPeriod > 600) {
		return preconditionf("open_period must be between 5 and 600, got %d", r.OpenPeriod)
	}
	return checkReplyMarkup(r.ReplyMarkup)
}

// EditMessageTextRequest represents the parameters for the editMessageText method.
// Exactly one of ChatID+MessageID or InlineMessageID addresses the message.
type EditMessageTextRequest struct {
	ChatID                int64                 `json:"chat_id,omitempty"`
	MessageID             int                   `json:"message_id,omitempty"`
	InlineMessageID       string                `json:"inline_message_id,omitempty"`
	Text                  string                `json:"text"`
	ParseMode             ParseMode             `json:"parse_mode,omitempty"`
	Entities              []MessageEntity       `json:"entities,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (r EditMessageTextRequest) validate() error {
	byChat := r.ChatID != 0 && r.MessageID != 0
	byInline := r.InlineMessageID != ""
	if byChat == byInline {
		return preconditionf("exactly one of chat_id with message_id or inline_message_id must be set")
	}
	if err := checkText("text", r.Text, 1, 4096); err != nil {
		return err
	}
	if err := checkMarkup(r.ParseMode, len(r.Entities), "entities"); err != nil {
		return err
	}
	if r.ReplyMarkup != nil {
		return checkReplyMarkup(r.ReplyMarkup)
	}
	return nil
}

// DeleteMessageRequest represents the parameters for the deleteMessage method.
type DeleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

func (r DeleteMessageRequest) validate() error {
	if r.ChatID == 0 || r.MessageID == 0 {
		return preconditionf("chat_id and message_id must be set")
	}
	return nil
}

// AnswerCallbackQueryRequest represents the parameters for the answerCallbackQuery method.
type AnswerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

func (r AnswerCallbackQueryRequest) validate() error {
	if r.CallbackQueryID == "" {
		return preconditionf("callback_query_id must be set")
	}
	return checkText("text", r.Text, 0, 200)
}

// AnswerPreCheckoutQueryRequest represents the parameters for the answerPreCheckoutQuery method.
type AnswerPreCheckoutQueryRequest struct {
	PreCheckoutQueryID string `json:"pre_checkout_query_id"`
	OK                 bool   `json:"ok"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

func (r AnswerPreCheckoutQueryRequest) validate() error {
	if r.PreCheckoutQueryID == "" {
		return preconditionf("pre_checkout_query_id must be set")
	}
	if !r.OK && r.ErrorMessage == "" {
		return preconditionf("error_message is required when ok is false")
	}
	return nil
}

// SetMyCommandsRequest represents the parameters for the setMyCommands method.
type SetMyCommandsRequest struct {
	Commands     []BotCommand `json:"commands"`
	LanguageCode string       `json:"language_code,omitempty"`
}

var commandRe = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

func (r SetMyCommandsRequest) validate() error {
	if len(r.Commands) > 100 {
		return preconditionf("at most 100 commands can be set, got %d", len(r.Commands))
	}
	for _, c := range r.Commands {
		if !commandRe.MatchString(c.Command) {
			return preconditionf("command %q must be 1-32 lowercase letters, digits or underscores", c.Command)
		}
		if err := checkText("description", c.Description, 1, 256); err != nil {
			return err
		}
	}
	return nil
}

// GetMyCommandsRequest represents the parameters for the getMyCommands method.
type GetMyCommandsRequest struct {
	LanguageCode string `json:"language_code,omitempty"`
}

// GetFileRequest represents the parameters for the getFile method.
type GetFileRequest struct {
	FileID string `json:"file_id"`
}

func (r GetFileRequest) validate() error {
	if r.FileID == "" {
		return preconditionf("file_id must be set")
	}
	return nil
}

// SetMessageReactionRequest represents the parameters for the setMessageReaction method.
type SetMessageReactionRequest struct {
	ChatID    int64          `json:"chat_id"`
	MessageID int            `json:"message_id"`
	Reaction  []ReactionType `json:"reaction,omitempty"`
	IsBig     bool           `json:"is_big,omitempty"`
}

func (r SetMessageReactionRequest) validate() error {
	if r.ChatID == 0 || r.MessageID == 0 {
		return preconditionf("chat_id and message_id must be set")
	}
	return nil
}

func checkText(field, s string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(s)
	if n < minLen || n > maxLen {
		if minLen > 0 && n == 0 {
			return preconditionf("%s must not be empty", field)
		}
		return preconditionf("%s must be %d-%d characters, got %d", field, minLen, maxLen, n)
	}
	return nil
}

func checkMarkup(mode ParseMode, entities int, field string) error {
	if mode != "" && entities > 0 {
		return preconditionf("parse_mode and %s are mutually exclusive", field)
	}
	return nil
}

func checkMedia(field string, m InputMedia) error {
	switch v := m.(type) {
	case nil:
		return preconditionf("%s must be set", field)
	case FileRef:
		if v == "" {
			return preconditionf("%s must be set", field)
		}
	case *InputFile:
		if v == nil || (v.Path == "" && v.Reader == nil) {
			return preconditionf("%s needs a path or a reader", field)
		}
	}
	return nil
}

func checkReplyMarkup(m ReplyMarkup) error {
	var kb *InlineKeyboardMarkup
	switch v := m.(type) {
	case *InlineKeyboardMarkup:
		kb = v
	case InlineKeyboardMarkup:
		kb = &v
	default:
		return nil
	}
	if kb == nil {
		return nil
	}
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if err := b.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b InlineKeyboardButton) validate() error {
	set := 0
	for _, ok := range []bool{
		b.URL != "",
		b.CallbackData != "",
		b.SwitchInlineQuery != nil,
		b.SwitchInlineQueryCurrentChat != nil,
		b.Pay,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return preconditionf("inline keyboard button %q must use exactly one of the optional fields", b.Text)
	}
	if len(b.CallbackData) > 64 {
		return preconditionf("callback_data of button %q must be at most 64 bytes", b.Text)
	}
	return nil
}
