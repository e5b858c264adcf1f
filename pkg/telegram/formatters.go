package telegram

import (
	"fmt"
	"strings"
	"time"
)

// DisplayName is the name to address the user by: first and last name, or
// the username when both are empty.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}

// Format formats user information for display, including their username if available.
func (u *User) Format() string {
	if u == nil {
		return "Unknown"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		if name != "" {
			name = fmt.Sprintf("%s (@%s)", name, u.Username)
		} else {
			name = "@" + u.Username
		}
	}
	if name == "" {
		name = fmt.Sprintf("ID:%d", u.ID)
	}
	return name
}

// Format formats chat information for display.
func (c *Chat) Format() string {
	if c == nil {
		return "Unknown Chat"
	}
	name := c.Title
	if name == "" {
		name = strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
	if c.Username != "" {
		if name != "" {
			name = fmt.Sprintf("%s (@%s)", name, c.Username)
		} else {
			name = "@" + c.Username
		}
	}
	if name == "" {
		name = fmt.Sprintf("ChatID:%d", c.ID)
	}
	return name
}

func formatTime(unixTime int64) string {
	if unixTime == 0 {
		return "unknown time"
	}
	return time.Unix(unixTime, 0).UTC().Format("2006-01-02 15:04:05")
}

// FormatOrigin describes where a forwarded message came from.
func FormatOrigin(o MessageOrigin) string {
	var from string
	switch v := o.(type) {
	case nil:
		return ""
	case *MessageOriginUser:
		from = v.SenderUser.Format()
	case *MessageOriginHiddenUser:
		from = v.SenderUserName
	case *MessageOriginChat:
		from = v.SenderChat.Format()
		if v.AuthorSignature != "" {
			from = fmt.Sprintf("%s (as %s)", from, v.AuthorSignature)
		}
	case *MessageOriginChannel:
		from = v.Chat.Format()
		if v.AuthorSignature != "" {
			from = fmt.Sprintf("%s (as %s)", from, v.AuthorSignature)
		}
	default:
		from = "Unknown Source"
	}
	return fmt.Sprintf("forwarded from %s at %s", from, formatTime(o.OriginDate()))
}

// Summary renders a one-line description of the message for logs.
func (m *Message) Summary() string {
	if m == nil {
		return ""
	}
	var prefix string
	if m.ForwardOrigin != nil {
		prefix = fmt.Sprintf("[%s, %s]", m.From.Format(), FormatOrigin(m.ForwardOrigin))
	} else {
		prefix = fmt.Sprintf("[%s (%s)]", m.From.Format(), formatTime(m.Date))
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if text == "" {
		switch {
		case len(m.Photo) > 0:
			text = "(photo)"
		case m.Document != nil:
			text = fmt.Sprintf("(document %s)", m.Document.FileName)
		case m.Sticker != nil:
			text = "(sticker " + m.Sticker.Emoji + ")"
		case m.Voice != nil:
			text = "(voice)"
		case m.Location != nil:
			text = "(location)"
		default:
			return ""
		}
	}
	return fmt.Sprintf("%s: %s", prefix, text)
}
