package bot

import (
	"testing"

	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
)

func i64(n int64) *int64 { return &n }

func TestTemplateEncode(t *testing.T) {
	tests := []struct {
		name   string
		tpl    *Template
		values []*int64
		want   string
	}{
		{"all slots empty", TplCoverPage, []*int64{nil, nil, nil, nil}, "covers page= a# gs# g#"},
		{"page only", TplCoverPage, []*int64{i64(1), nil, nil, nil}, "covers page=1 a# gs# g#"},
		{"zero is a real value", TplCoverPage, []*int64{i64(1), i64(0), nil, nil}, "covers page=1 a#0 gs# g#"},
		{"full", TplCoverPage, []*int64{i64(42), i64(101), i64(7), i64(9000)}, "covers page=42 a#101 gs#7 g#9000"},
		{"single slot", TplAuthorCard, []*int64{i64(101)}, "author c#101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tpl.Encode(tt.values...)
			if got != tt.want {
				t.Fatalf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	tuples := [][]*int64{
		{nil, nil, nil, nil},
		{i64(1), nil, nil, nil},
		{nil, i64(0), nil, nil},
		{nil, nil, i64(0), nil},
		{nil, nil, nil, i64(123456789012)},
		{i64(9999), i64(0), i64(1), i64(2)},
	}
	for _, tuple := range tuples {
		payload := TplCoverPage.Encode(tuple...)
		got, ok := TplCoverPage.Decode(payload)
		if !ok {
			t.Fatalf("Decode(%q) did not match", payload)
		}
		if len(got) != len(tuple) {
			t.Fatalf("Decode(%q): %d slots, want %d", payload, len(got), len(tuple))
		}
		for i := range tuple {
			switch {
			case tuple[i] == nil && got[i] != nil:
				t.Fatalf("Decode(%q) slot %d: got %d, want absent", payload, i, *got[i])
			case tuple[i] != nil && got[i] == nil:
				t.Fatalf("Decode(%q) slot %d: got absent, want %d", payload, i, *tuple[i])
			case tuple[i] != nil && *got[i] != *tuple[i]:
				t.Fatalf("Decode(%q) slot %d: got %d, want %d", payload, i, *got[i], *tuple[i])
			}
		}
	}
}

func TestTemplateZeroDistinctFromAbsent(t *testing.T) {
	withZero := TplCoverPage.Encode(i64(1), i64(0), nil, nil)
	withNil := TplCoverPage.Encode(i64(1), nil, nil, nil)
	if withZero == withNil {
		t.Fatalf("author id 0 and no author filter encode identically: %q", withZero)
	}

	got, ok := TplCoverPage.Decode(withZero)
	if !ok {
		t.Fatalf("Decode(%q) did not match", withZero)
	}
	if got[1] == nil || *got[1] != 0 {
		t.Fatalf("slot 1 of %q: want 0, got %v", withZero, got[1])
	}
}

func TestTemplateMatch(t *testing.T) {
	tests := []struct {
		payload string
		want    *Template
	}{
		{"covers page=1 a# gs# g#", TplCoverPage},
		{"authors page=3", TplAuthorsPage},
		{"games page=1 gs#0", TplGamesPage},
		{"game_series page=2", TplGameSeriesPage},
		{"author c#101", TplAuthorCard},
		{"game c#5", TplGameCard},
		{"game_series c#0", TplGameSeriesCard},
		{"cover open c#77", TplCoverOpen},
	}
	all := []*Template{
		TplCoverPage, TplCoverOpen, TplAuthorsPage, TplGamesPage,
		TplGameSeriesPage, TplAuthorCard, TplGameCard, TplGameSeriesCard,
	}
	for _, tt := range tests {
		for _, tpl := range all {
			got := tpl.Match(tt.payload)
			if want := tpl == tt.want; got != want {
				t.Errorf("Match(%q) on %q = %v, want %v", tt.payload, tpl.skeleton, got, want)
			}
		}
	}
}

func TestTemplateDecodeRejectsGarbage(t *testing.T) {
	for _, payload := range []string{
		"",
		"covers",
		"covers page=x a# gs# g#",
		"covers page=1 a# gs# g# trailing",
		"prefix covers page=1 a# gs# g#",
	} {
		if _, ok := TplCoverPage.Decode(payload); ok {
			t.Errorf("Decode(%q) matched, want reject", payload)
		}
	}
	if _, ok := TplAuthorCard.Decode("author c#-1"); ok {
		t.Error(`Decode("author c#-1") matched, negative ids are not encodable`)
	}
}

func TestTemplateRejectsOverlongSlots(t *testing.T) {
	// A forged payload may carry more digits than any slot is declared to
	// hold; Match and Decode must agree on rejecting it, or a dispatcher
	// trusting Match would index an empty Decode result.
	payloads := map[*Template]string{
		TplCoverPage:   "covers page=1 a#99999999999999999999 gs# g#",
		TplAuthorsPage: "authors page=99999",
		TplAuthorCard:  "author c#9999999999999",
	}
	for tpl, payload := range payloads {
		if tpl.Match(payload) {
			t.Errorf("Match(%q) on %q accepted an overlong slot", payload, tpl.skeleton)
		}
		if _, ok := tpl.Decode(payload); ok {
			t.Errorf("Decode(%q) on %q accepted an overlong slot", payload, tpl.skeleton)
		}
	}

	// Values at exactly the declared width still round-trip.
	id := int64(999999999999)
	payload := TplAuthorCard.Encode(&id)
	got, ok := TplAuthorCard.Decode(payload)
	if !ok || got[0] == nil || *got[0] != id {
		t.Fatalf("Decode(%q) = %v, %v; want the 12-digit id back", payload, got, ok)
	}
}

func TestTemplatesFitCallbackPayload(t *testing.T) {
	for _, tpl := range []*Template{
		TplCoverPage, TplCoverOpen, TplAuthorsPage, TplGamesPage,
		TplGameSeriesPage, TplAuthorCard, TplGameCard, TplGameSeriesCard,
	} {
		if n := tpl.MaxEncodedSize(); n > config.MaxCallbackPayload {
			t.Errorf("template %q: worst case %d exceeds %d bytes",
				tpl.skeleton, n, config.MaxCallbackPayload)
		}
	}
}
