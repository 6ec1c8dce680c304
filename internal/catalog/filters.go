package catalog

import (
	"fmt"

	"gorm.io/gorm"
)

// Kind is the closed set of catalog entity kinds.
type Kind int

const (
	KindAuthor Kind = iota
	KindGameSeries
	KindGame
	KindCover
)

func (k Kind) String() string {
	switch k {
	case KindAuthor:
		return "author"
	case KindGameSeries:
		return "game_series"
	case KindGame:
		return "game"
	case KindCover:
		return "cover"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Filters is the plain predicate-value object resolved into a concrete query
// only at the point of execution. Each scoping id is optional; nil means
// "no filter" and is never conflated with a zero id (author id 0 is real).
type Filters struct {
	ByAuthor     *int64
	ByGameSeries *int64
	ByGame       *int64
}

// Apply composes the AND-ed predicates for the given entity kind onto tx.
// The count operation and the fetch operation both go through here, so a
// count and a subsequent fetch against the same Filters always agree on
// what "matching" means. An unknown kind is a programming error.
func (f Filters) Apply(kind Kind, tx *gorm.DB) *gorm.DB {
	sub := func() *gorm.DB {
		return tx.Session(&gorm.Session{NewDB: true})
	}

	// cover ids reachable from the scoping author through the link table
	coversOfAuthor := func(authorID int64) *gorm.DB {
		return sub().Model(&AuthorCover{}).
			Select("cover_id").
			Where("author_id = ?", authorID)
	}
	gamesOfSeries := func(seriesID int64) *gorm.DB {
		return sub().Model(&Game{}).
			Select("id").
			Where("series_id = ?", seriesID)
	}

	switch kind {
	case KindCover:
		if f.ByAuthor != nil {
			tx = tx.Where("covers.id IN (?)", coversOfAuthor(*f.ByAuthor))
		}
		if f.ByGameSeries != nil {
			tx = tx.Where("covers.game_id IN (?)", gamesOfSeries(*f.ByGameSeries))
		}
		if f.ByGame != nil {
			tx = tx.Where("covers.game_id = ?", *f.ByGame)
		}

	case KindGame:
		if f.ByAuthor != nil {
			gameIDs := sub().Model(&Cover{}).
				Distinct("game_id").
				Where("id IN (?)", coversOfAuthor(*f.ByAuthor))
			tx = tx.Where("games.id IN (?)", gameIDs)
		}
		if f.ByGameSeries != nil {
			tx = tx.Where("games.series_id = ?", *f.ByGameSeries)
		}
		if f.ByGame != nil {
			tx = tx.Where("games.id = ?", *f.ByGame)
		}

	case KindGameSeries:
		if f.ByAuthor != nil {
			gameIDs := sub().Model(&Cover{}).
				Distinct("game_id").
				Where("id IN (?)", coversOfAuthor(*f.ByAuthor))
			seriesIDs := sub().Model(&Game{}).
				Distinct("series_id").
				Where("id IN (?)", gameIDs)
			tx = tx.Where("game_series.id IN (?)", seriesIDs)
		}
		if f.ByGameSeries != nil {
			tx = tx.Where("game_series.id = ?", *f.ByGameSeries)
		}
		if f.ByGame != nil {
			seriesIDs := sub().Model(&Game{}).
				Select("series_id").
				Where("id = ?", *f.ByGame)
			tx = tx.Where("game_series.id IN (?)", seriesIDs)
		}

	case KindAuthor:
		authorsOfCovers := func(coverIDs *gorm.DB) *gorm.DB {
			return sub().Model(&AuthorCover{}).
				Distinct("author_id").
				Where("cover_id IN (?)", coverIDs)
		}
		if f.ByAuthor != nil {
			tx = tx.Where("authors.id = ?", *f.ByAuthor)
		}
		if f.ByGameSeries != nil {
			coverIDs := sub().Model(&Cover{}).
				Select("id").
				Where("game_id IN (?)", gamesOfSeries(*f.ByGameSeries))
			tx = tx.Where("authors.id IN (?)", authorsOfCovers(coverIDs))
		}
		if f.ByGame != nil {
			coverIDs := sub().Model(&Cover{}).
				Select("id").
				Where("game_id = ?", *f.ByGame)
			tx = tx.Where("authors.id IN (?)", authorsOfCovers(coverIDs))
		}

	default:
		panic(fmt.Sprintf("catalog: unknown entity kind %v", kind))
	}

	return tx
}

// model returns the gorm model value for the kind, for Count and listing.
func (k Kind) model() interface{} {
	switch k {
	case KindAuthor:
		return &Author{}
	case KindGameSeries:
		return &GameSeries{}
	case KindGame:
		return &Game{}
	case KindCover:
		return &Cover{}
	}
	panic(fmt.Sprintf("catalog: unknown entity kind %v", k))
}
