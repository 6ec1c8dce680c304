package bot

import (
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
)

const firstRequestKey = "first_request"

// requestMiddleware runs around every handler invocation: one structured
// log line with the interaction's identity, the activity upsert, and
// timing. The upsert races with itself under concurrent interactions from
// the same identity; a lost increment is fine.
func (b *Bot) requestMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()

		var chatID, userID int64
		var username, text, callbackData string
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if sender := c.Sender(); sender != nil {
			userID = sender.ID
			username = sender.Username
		}
		if msg := c.Message(); msg != nil {
			text = msg.Text
		}
		if cb := c.Callback(); cb != nil {
			callbackData = cb.Data
		}

		b.log.Debug("request",
			"chat_id", chatID,
			"user_id", userID,
			"username", username,
			"message", text,
			"callback_data", callbackData,
		)

		b.trackActivity(c)

		err := next(c)

		b.log.Debug("request done",
			"chat_id", chatID,
			"user_id", userID,
			"elapsed", time.Since(start).String(),
		)
		return err
	}
}

// trackActivity upserts the chat and user bookkeeping rows. Failures are
// logged and swallowed: bookkeeping must never take a handler down.
func (b *Bot) trackActivity(c tele.Context) {
	ctx, cancel := reqCtx()
	defer cancel()

	if sender := c.Sender(); sender != nil {
		u := &catalog.TgUser{
			ID:           sender.ID,
			FirstName:    sender.FirstName,
			LastName:     optional(sender.LastName),
			Username:     optional(sender.Username),
			LanguageCode: optional(sender.LanguageCode),
		}
		if _, err := b.repo.ActualizeUser(ctx, u); err != nil {
			b.log.Warn("actualize user failed", "user_id", sender.ID, "err", err)
		}
	}

	if chat := c.Chat(); chat != nil {
		tc := &catalog.TgChat{
			ID:          chat.ID,
			Type:        string(chat.Type),
			Title:       optional(chat.Title),
			Username:    optional(chat.Username),
			FirstName:   optional(chat.FirstName),
			LastName:    optional(chat.LastName),
			Description: optional(chat.Description),
		}
		fresh, err := b.repo.ActualizeChat(ctx, tc)
		if err != nil {
			b.log.Warn("actualize chat failed", "chat_id", chat.ID, "err", err)
			return
		}
		c.Set(firstRequestKey, fresh.IsFirstRequest())
	}
}

// isFirstRequest reports whether the middleware saw this chat for the first
// time, to show onboarding help once.
func isFirstRequest(c tele.Context) bool {
	v, _ := c.Get(firstRequestKey).(bool)
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
