package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&GameSeries{}, &Game{}, &Cover{}, &Author{}, &AuthorCover{},
		&TgUser{}, &TgChat{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Exec(
		"INSERT OR IGNORE INTO game_series (id, name, slug) VALUES (0, ?, ?)",
		UnknownSeriesName, Slug(UnknownSeriesName),
	).Error; err != nil {
		t.Fatalf("seed sentinel series: %v", err)
	}
	return db
}

// seedCatalog builds the fixture used across the pagination tests:
// two covers, C1 (2012) by author Vasily, C2 (2020) by author Petr.
// C1 belongs to the game "Mafia" in series "Mafia"; C2 to "Doom 3"
// without a series.
func seedCatalog(t *testing.T, db *gorm.DB) *Repo {
	t.Helper()
	repo := NewRepo(db)
	ctx := context.Background()

	series, err := repo.AddGameSeries(ctx, "Mafia")
	if err != nil {
		t.Fatalf("add series: %v", err)
	}
	mafia, err := repo.AddGame(ctx, "Mafia", series.ID)
	if err != nil {
		t.Fatalf("add game: %v", err)
	}
	doom, err := repo.AddGame(ctx, "Doom 3", UnknownSeriesID)
	if err != nil {
		t.Fatalf("add game: %v", err)
	}

	vasily, err := repo.AddAuthor(ctx, 101, "Vasily", "")
	if err != nil {
		t.Fatalf("add author: %v", err)
	}
	petr, err := repo.AddAuthor(ctx, 102, "Petr", "")
	if err != nil {
		t.Fatalf("add author: %v", err)
	}

	c1 := Cover{
		Text: "cover one", FileName: "c1.jpg",
		URLPost: "https://vk.com/wall-1_1", URLPostImage: "https://vk.com/photo1",
		GameID:   mafia.ID,
		DateTime: time.Date(2012, 8, 8, 0, 43, 29, 0, time.UTC),
	}
	c2 := Cover{
		Text: "cover two", FileName: "c2.jpg",
		URLPost: "https://vk.com/wall-1_2", URLPostImage: "https://vk.com/photo2",
		GameID:   doom.ID,
		DateTime: time.Date(2020, 3, 17, 20, 0, 5, 0, time.UTC),
	}
	for _, c := range []*Cover{&c1, &c2} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("create cover: %v", err)
		}
	}

	for _, link := range []AuthorCover{
		{AuthorID: vasily.ID, CoverID: c1.ID},
		{AuthorID: petr.ID, CoverID: c2.ID},
	} {
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("create link: %v", err)
		}
	}
	return repo
}

func TestCoverByPageByAuthor(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	vasilyID := int64(101)
	f := Filters{ByAuthor: &vasilyID}

	cover, err := repo.CoverByPage(ctx, 1, f)
	if err != nil {
		t.Fatalf("cover by page: %v", err)
	}
	if cover == nil || cover.FileName != "c1.jpg" {
		t.Fatalf("expected c1.jpg on page 1, got %+v", cover)
	}

	page, err := repo.CoverPage(ctx, cover.ID, f)
	if err != nil {
		t.Fatalf("page of cover: %v", err)
	}
	if page != 1 {
		t.Fatalf("expected page 1, got %d", page)
	}

	past, err := repo.CoverByPage(ctx, 2, f)
	if err != nil {
		t.Fatalf("cover by page 2: %v", err)
	}
	if past != nil {
		t.Fatalf("expected absence past the filtered end, got %+v", past)
	}
}

func TestCoverByPagePastEndIsAbsence(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	for _, page := range []int{3, 100, 0, -1} {
		cover, err := repo.CoverByPage(ctx, page, Filters{})
		if err != nil {
			t.Fatalf("page %d: unexpected error %v", page, err)
		}
		if cover != nil {
			t.Fatalf("page %d: expected absence, got %+v", page, cover)
		}
	}
}

func TestCoverPageRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	total, err := repo.Count(ctx, KindCover, Filters{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	for page := 1; int64(page) <= total; page++ {
		cover, err := repo.CoverByPage(ctx, page, Filters{})
		if err != nil {
			t.Fatalf("cover by page %d: %v", page, err)
		}
		if cover == nil {
			t.Fatalf("page %d inside the count is empty", page)
		}
		back, err := repo.CoverPage(ctx, cover.ID, Filters{})
		if err != nil {
			t.Fatalf("inverse page of %d: %v", cover.ID, err)
		}
		if back != page {
			t.Fatalf("round trip page %d -> cover %d -> page %d", page, cover.ID, back)
		}
	}
}

func TestCoverPageExcludedByFilterIsHardError(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	// C2 exists but is not linked to Vasily.
	vasilyID := int64(101)
	c2, err := repo.CoverByPage(ctx, 2, Filters{})
	if err != nil || c2 == nil {
		t.Fatalf("fixture: %v %v", c2, err)
	}

	_, err = repo.CoverPage(ctx, c2.ID, Filters{ByAuthor: &vasilyID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for excluded cover, got %v", err)
	}
}

func TestCountMatchesPaginateToExhaustion(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	vasilyID := int64(101)
	for name, f := range map[string]Filters{
		"all":       {},
		"by author": {ByAuthor: &vasilyID},
	} {
		count, err := repo.Count(ctx, KindCover, f)
		if err != nil {
			t.Fatalf("%s: count: %v", name, err)
		}
		var n int64
		for page := 1; ; page++ {
			cover, err := repo.CoverByPage(ctx, page, f)
			if err != nil {
				t.Fatalf("%s: page %d: %v", name, page, err)
			}
			if cover == nil {
				break
			}
			n++
		}
		if n != count {
			t.Fatalf("%s: count=%d but paginate-to-exhaustion saw %d", name, count, n)
		}
	}
}

func TestTransitiveFilters(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	series, err := repo.GetGameSeriesByName(ctx, "Mafia")
	if err != nil {
		t.Fatalf("get series: %v", err)
	}

	// Authors reachable through the series: only Vasily.
	authors, err := repo.ListAuthors(ctx, 1, 10, Filters{ByGameSeries: &series.ID})
	if err != nil {
		t.Fatalf("list authors: %v", err)
	}
	if len(authors) != 1 || authors[0].Name != "Vasily" {
		t.Fatalf("expected [Vasily], got %+v", authors)
	}

	// Series reachable from Petr: only the sentinel (via Doom 3).
	petrID := int64(102)
	n, err := repo.Count(ctx, KindGameSeries, Filters{ByAuthor: &petrID})
	if err != nil {
		t.Fatalf("count series: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 series reachable from Petr, got %d", n)
	}

	// Games scoped by series.
	games, err := repo.ListGames(ctx, 1, 10, Filters{ByGameSeries: &series.ID})
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 1 || games[0].Name != "Mafia" {
		t.Fatalf("expected [Mafia], got %+v", games)
	}
}

func TestZeroAuthorIDIsARealFilter(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	// The default author carries id 0 and may legitimately scope a view.
	if _, err := repo.AddAuthor(ctx, 0, `Обложки "Фаргус"`, "https://vk.com/farguscovers"); err != nil {
		t.Fatalf("add default author: %v", err)
	}

	zero := int64(0)
	n, err := repo.Count(ctx, KindCover, Filters{ByAuthor: &zero})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("author 0 has no covers linked, got %d", n)
	}

	// nil (no filter) must see everything instead.
	all, err := repo.Count(ctx, KindCover, Filters{})
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if all != 2 {
		t.Fatalf("expected 2 covers unfiltered, got %d", all)
	}
}

func TestGetBySlugBlankIsDefect(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	for _, v := range []string{"", "    ", " ! "} {
		if _, err := repo.GetGameSeriesBySlug(ctx, v); !errors.Is(err, ErrNotDefined) {
			t.Errorf("series slug %q: expected ErrNotDefined, got %v", v, err)
		}
		if _, err := repo.GetGameByName(ctx, v); !errors.Is(err, ErrNotDefined) {
			t.Errorf("game name %q: expected ErrNotDefined, got %v", v, err)
		}
	}
}

func TestFirstAndLastCover(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	first, err := repo.FirstCover(ctx)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	last, err := repo.LastCover(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if first == nil || last == nil {
		t.Fatal("expected both first and last covers")
	}
	if first.FileName != "c1.jpg" || last.FileName != "c2.jpg" {
		t.Fatalf("order wrong: first=%s last=%s", first.FileName, last.FileName)
	}

	empty := openTestDB(t)
	emptyRepo := NewRepo(empty)
	if c, err := emptyRepo.FirstCover(ctx); err != nil || c != nil {
		t.Fatalf("empty catalog: expected (nil, nil), got (%v, %v)", c, err)
	}
}

func TestActualizeChatFirstRequest(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	chat := &TgChat{ID: 42, Type: "private"}

	got, err := repo.ActualizeChat(ctx, chat)
	if err != nil {
		t.Fatalf("actualize: %v", err)
	}
	if !got.IsFirstRequest() {
		t.Fatalf("expected first request, number_requests=%d", got.NumberRequests)
	}

	got, err = repo.ActualizeChat(ctx, &TgChat{ID: 42, Type: "private"})
	if err != nil {
		t.Fatalf("actualize again: %v", err)
	}
	if got.IsFirstRequest() {
		t.Fatalf("expected not-first request, number_requests=%d", got.NumberRequests)
	}
	if got.NumberRequests != 2 {
		t.Fatalf("expected 2 requests, got %d", got.NumberRequests)
	}
}

func TestMakeIdenticalAuthorsUnique(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	for _, id := range []int64{11, 12} {
		if _, err := repo.AddAuthor(ctx, id, "DELETED", ""); err != nil {
			t.Fatalf("add author: %v", err)
		}
	}
	if _, err := repo.AddAuthor(ctx, 13, "Alone", ""); err != nil {
		t.Fatalf("add author: %v", err)
	}

	if err := repo.MakeIdenticalAuthorsUnique(ctx); err != nil {
		t.Fatalf("make unique: %v", err)
	}

	a, err := repo.GetAuthor(ctx, 11)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if a.Name != "DELETED (id11)" {
		t.Fatalf("expected suffixed name, got %q", a.Name)
	}
	alone, err := repo.GetAuthor(ctx, 13)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if alone.Name != "Alone" {
		t.Fatalf("unique name must stay untouched, got %q", alone.Name)
	}
}

func TestFindCovers(t *testing.T) {
	db := openTestDB(t)
	repo := seedCatalog(t, db)
	ctx := context.Background()

	found, err := repo.FindCovers(ctx, "mafia")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 || found[0].FileName != "c1.jpg" {
		t.Fatalf("expected [c1.jpg], got %+v", found)
	}

	found, err = repo.FindCovers(ctx, "VASILY")
	if err != nil {
		t.Fatalf("find by author: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 cover by author name, got %d", len(found))
	}

	found, err = repo.FindCovers(ctx, "nothing like this")
	if err != nil {
		t.Fatalf("find miss: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no matches, got %d", len(found))
	}
}
