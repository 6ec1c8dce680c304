package bot

import (
	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
)

// Severity tags every user-facing message; raw error text never reaches
// the chat.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityError
)

func (s Severity) format(text string) string {
	switch s {
	case SeverityInfo:
		return "ℹ️ " + text
	case SeverityError:
		return "⚠ " + text
	default:
		return text
	}
}

// reply sends text in chunks within the gateway's message length limit.
func reply(c tele.Context, text string, severity Severity, opts ...interface{}) error {
	text = severity.format(text)

	runes := []rune(text)
	for len(runes) > 0 {
		n := len(runes)
		if n > config.MaxMessageLength {
			n = config.MaxMessageLength
		}
		if err := c.Send(string(runes[:n]), opts...); err != nil {
			return err
		}
		runes = runes[n:]
	}
	return nil
}
