package telegram

// Field bundles shared by several Bot API objects. They are embedded, so the
// hydrator and encoding/json see their fields as if declared on the parent.

// FileBase identifies a file stored on Telegram servers.
type FileBase struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Bounds is the pixel size of visual media.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FileDescription is the name and MIME type a sender attached to a file.
type FileDescription struct {
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// MediaCaption is the text attached to media.
type MediaCaption struct {
	Caption         string          `json:"caption,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
}
