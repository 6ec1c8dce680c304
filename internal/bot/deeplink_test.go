package bot

import "testing"

func TestDeepLinkRoundTrip(t *testing.T) {
	arg := EncodeDeepLink(DeepLinkCover, 42, -1001234567890, 515)
	if arg != "cover_42_-1001234567890_515" {
		t.Fatalf("unexpected encoding %q", arg)
	}

	dl, err := DecodeDeepLink(arg, -1001234567890)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dl.Kind != DeepLinkCover || dl.EntityID != 42 || dl.OriginChatID != -1001234567890 {
		t.Fatalf("decoded %+v", dl)
	}
	if dl.ReplyTo == nil || *dl.ReplyTo != 515 {
		t.Fatalf("same chat must keep the reply target, got %v", dl.ReplyTo)
	}
}

func TestDeepLinkCrossChatDropsReply(t *testing.T) {
	arg := EncodeDeepLink(DeepLinkGame, 7, 100, 12)

	dl, err := DecodeDeepLink(arg, 200)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dl.ReplyTo != nil {
		t.Fatalf("reply target must not cross chats, got %d", *dl.ReplyTo)
	}
	if dl.Kind != DeepLinkGame || dl.EntityID != 7 || dl.OriginChatID != 100 {
		t.Fatalf("decoded %+v", dl)
	}
}

func TestDeepLinkAllKinds(t *testing.T) {
	for _, kind := range []DeepLinkKind{
		DeepLinkCover, DeepLinkAuthor, DeepLinkGameSeries, DeepLinkGame,
	} {
		arg := EncodeDeepLink(kind, 1, 2, 3)
		dl, err := DecodeDeepLink(arg, 2)
		if err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}
		if dl.Kind != kind {
			t.Errorf("%s: decoded kind %s", kind, dl.Kind)
		}
	}
}

func TestDeepLinkMalformed(t *testing.T) {
	for _, arg := range []string{
		"",
		"cover",
		"cover_42",
		"cover_42_100",
		"unknown_42_100_12",
		"cover_-42_100_12",
		"cover_42_100_-12",
		"cover_42_100_12_extra",
		"COVER_42_100_12",
	} {
		if _, err := DecodeDeepLink(arg, 100); err == nil {
			t.Errorf("DecodeDeepLink(%q) succeeded, want error", arg)
		}
	}
}
