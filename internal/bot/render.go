package bot

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

// View is a fully rendered response waiting for delivery.
type View struct {
	Text   string
	Photo  *tele.Photo
	Markup *tele.ReplyMarkup

	// ForceNew requests a fresh message even for a button press, for
	// actions that must not perturb the existing card.
	ForceNew bool
}

// shouldEdit decides between editing the pressed message in place and
// sending a new one.
func shouldEdit(isCallback, forceNew bool) bool {
	return isCallback && !forceNew
}

// sameKeyboard compares inline keyboards structurally: same shape, same
// button text, payload and URL.
func sameKeyboard(cur [][]tele.InlineButton, markup *tele.ReplyMarkup) bool {
	var next [][]tele.InlineButton
	if markup != nil {
		next = markup.InlineKeyboard
	}
	if len(cur) != len(next) {
		return false
	}
	for i := range cur {
		if len(cur[i]) != len(next[i]) {
			return false
		}
		for j := range cur[i] {
			a, b := cur[i][j], next[i][j]
			if a.Text != b.Text || a.Data != b.Data || a.URL != b.URL {
				return false
			}
		}
	}
	return true
}

// sameContent reports whether delivering v onto msg would be a no-op edit.
// The gateway rejects edits with identical text and keyboard, so these are
// short-circuited before any call is made.
func sameContent(msg *tele.Message, v View) bool {
	if msg == nil {
		return false
	}
	curText := msg.Text
	if msg.Photo != nil {
		curText = msg.Caption
	}
	if curText != v.Text {
		return false
	}
	var curKb [][]tele.InlineButton
	if msg.ReplyMarkup != nil {
		curKb = msg.ReplyMarkup.InlineKeyboard
	}
	return sameKeyboard(curKb, v.Markup)
}

// isNotModified matches the gateway's rejection of a no-op edit, the one
// error class that is swallowed when the guard loses a race.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// deliver renders v into the chat: edit in place for button presses unless a
// fresh message is requested, send otherwise. An edit that would not change
// anything is skipped; a residual "not modified" rejection is swallowed.
func (b *Bot) deliver(c tele.Context, v View) error {
	edit := shouldEdit(c.Callback() != nil, v.ForceNew)

	if edit {
		msg := c.Message()

		// An edit can only morph a message within its media kind.
		if msg != nil && (msg.Photo != nil) != (v.Photo != nil) {
			edit = false
		} else if sameContent(msg, v) {
			return nil
		}

		if edit {
			var err error
			if v.Photo != nil {
				v.Photo.Caption = v.Text
				err = c.Edit(v.Photo, v.Markup)
			} else {
				err = c.Edit(v.Text, v.Markup)
			}
			if isNotModified(err) {
				return nil
			}
			return err
		}
	}

	if v.Photo != nil {
		v.Photo.Caption = v.Text
		return c.Send(v.Photo, v.Markup)
	}
	return c.Send(v.Text, v.Markup)
}
