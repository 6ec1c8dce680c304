package bot

import (
	"fmt"
	"regexp"
	"strconv"
)

// DeepLinkKind is the closed set of entities a start argument may open.
type DeepLinkKind string

const (
	DeepLinkCover      DeepLinkKind = "cover"
	DeepLinkAuthor     DeepLinkKind = "author"
	DeepLinkGameSeries DeepLinkKind = "game_series"
	DeepLinkGame       DeepLinkKind = "game"
)

// DeepLink carries the navigation state a shared link brings into a fresh
// conversation: what to open, and where the share happened.
type DeepLink struct {
	Kind     DeepLinkKind
	EntityID int64

	OriginChatID int64

	// ReplyTo is the message to quote; only meaningful inside the chat that
	// produced it.
	ReplyTo *int
}

var deepLinkRe = regexp.MustCompile(
	`^(cover|author|game_series|game)_(\d+)_(-?\d+)_(\d+)$`,
)

// EncodeDeepLink builds the opaque start argument for sharing an entity.
func EncodeDeepLink(kind DeepLinkKind, entityID, chatID int64, messageID int) string {
	return fmt.Sprintf("%s_%d_%d_%d", kind, entityID, chatID, messageID)
}

// DecodeDeepLink parses a start argument. An unrecognized kind or malformed
// token is an error: tokens are only produced by this bot, so failure here
// means tampering or corruption, not user input.
//
// A reply target from a chat other than currentChatID is forcibly dropped:
// message ids do not transfer between chats and reusing one is undefined
// behavior in the gateway.
func DecodeDeepLink(arg string, currentChatID int64) (*DeepLink, error) {
	m := deepLinkRe.FindStringSubmatch(arg)
	if m == nil {
		return nil, fmt.Errorf("malformed deep link token %q", arg)
	}

	entityID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("deep link entity id %q: %w", m[2], err)
	}
	originChatID, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("deep link chat id %q: %w", m[3], err)
	}
	messageID, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, fmt.Errorf("deep link message id %q: %w", m[4], err)
	}

	dl := &DeepLink{
		Kind:         DeepLinkKind(m[1]),
		EntityID:     entityID,
		OriginChatID: originChatID,
	}
	if originChatID == currentChatID {
		dl.ReplyTo = &messageID
	}
	return dl, nil
}

// deepLinkURL is the shareable t.me address that reopens the entity.
func (b *Bot) deepLinkURL(kind DeepLinkKind, entityID, chatID int64, messageID int) string {
	return fmt.Sprintf("https://t.me/%s?start=%s",
		b.username, EncodeDeepLink(kind, entityID, chatID, messageID))
}
