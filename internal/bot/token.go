package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
)

// Template is a fixed literal skeleton for callback payloads. Slots hold
// optional non-negative integers: an absent value encodes as the empty
// string, never as "0" (author id 0 is a real id) and never as a word.
//
// Placeholders: {page} (at most 4 digits), {id} (at most 12 digits); a
// payload with a longer digit run does not match the template at all.
type Template struct {
	skeleton string
	literals []string
	widths   []int
	re       *regexp.Regexp
}

var placeholderRe = regexp.MustCompile(`\{(page|id)\}`)

func NewTemplate(skeleton string) *Template {
	matches := placeholderRe.FindAllStringSubmatchIndex(skeleton, -1)

	t := &Template{skeleton: skeleton}
	var rePattern strings.Builder
	rePattern.WriteString("^")

	prev := 0
	for _, m := range matches {
		literal := skeleton[prev:m[0]]
		t.literals = append(t.literals, literal)

		width := 12
		if skeleton[m[2]:m[3]] == "page" {
			width = 4
		}
		t.widths = append(t.widths, width)

		// Slots are bounded to their declared widths so that a payload
		// accepted by Match is always representable: an overlong run of
		// digits is rejected at the regexp, never at ParseInt.
		rePattern.WriteString(regexp.QuoteMeta(literal))
		fmt.Fprintf(&rePattern, `(\d{0,%d})`, width)

		prev = m[1]
	}
	tail := skeleton[prev:]
	t.literals = append(t.literals, tail)
	rePattern.WriteString(regexp.QuoteMeta(tail))
	rePattern.WriteString("$")

	t.re = regexp.MustCompile(rePattern.String())

	if n := t.MaxEncodedSize(); n > config.MaxCallbackPayload {
		panic(fmt.Sprintf("token template %q: worst case %d bytes exceeds the %d-byte payload limit",
			skeleton, n, config.MaxCallbackPayload))
	}
	return t
}

// Slots returns the number of value slots in the template.
func (t *Template) Slots() int { return len(t.widths) }

// MaxEncodedSize is the encoded length with every slot at its maximum
// realistic width.
func (t *Template) MaxEncodedSize() int {
	n := 0
	for _, lit := range t.literals {
		n += len(lit)
	}
	for _, w := range t.widths {
		n += w
	}
	return n
}

// Encode substitutes each slot left to right with the decimal digits of the
// value, or the empty string for nil.
func (t *Template) Encode(values ...*int64) string {
	if len(values) != t.Slots() {
		panic(fmt.Sprintf("token template %q: got %d values, want %d",
			t.skeleton, len(values), t.Slots()))
	}
	var b strings.Builder
	for i, v := range values {
		b.WriteString(t.literals[i])
		if v != nil {
			b.WriteString(strconv.FormatInt(*v, 10))
		}
	}
	b.WriteString(t.literals[len(t.literals)-1])
	return b.String()
}

// Decode parses a payload back into slot values; an empty slot round-trips
// as nil. The second result is false if the payload does not match the
// skeleton.
func (t *Template) Decode(s string) ([]*int64, bool) {
	m := t.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	values := make([]*int64, t.Slots())
	for i := 0; i < t.Slots(); i++ {
		group := m[i+1]
		if group == "" {
			continue
		}
		n, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			return nil, false
		}
		values[i] = &n
	}
	return values, true
}

// Match reports whether a payload belongs to this template.
func (t *Template) Match(s string) bool {
	return t.re.MatchString(s)
}

// Callback payload templates. Every one of these fits the 64-byte limit at
// maximum slot width, which is asserted in NewTemplate.
var (
	// Cover-card paginator: page plus up to three scoping ids.
	TplCoverPage = NewTemplate("covers page={page} a#{id} gs#{id} g#{id}")

	// Open a cover as a fresh message instead of editing in place.
	TplCoverOpen = NewTemplate("cover open c#{id}")

	// Listing paginators.
	TplAuthorsPage    = NewTemplate("authors page={page}")
	TplGamesPage      = NewTemplate("games page={page} gs#{id}")
	TplGameSeriesPage = NewTemplate("game_series page={page}")

	// Entity cards.
	TplAuthorCard     = NewTemplate("author c#{id}")
	TplGameCard       = NewTemplate("game c#{id}")
	TplGameSeriesCard = NewTemplate("game_series c#{id}")
)
