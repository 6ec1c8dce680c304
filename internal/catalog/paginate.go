package catalog

import (
	"context"
	"fmt"
)

// Count returns the number of rows of the given kind matching f.
func (r *Repo) Count(ctx context.Context, kind Kind, f Filters) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(kind.model())
	if err := f.Apply(kind, tx).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CoverByPage returns the single cover at the 1-indexed page of the filtered
// sequence ordered by (date_time, id). A page past the end (or below 1)
// yields (nil, nil): absence is the terminal condition, not an error.
func (r *Repo) CoverByPage(ctx context.Context, page int, f Filters) (*Cover, error) {
	if page < 1 {
		return nil, nil
	}
	var covers []Cover
	tx := r.db.WithContext(ctx).Model(&Cover{})
	err := f.Apply(KindCover, tx).
		Order("date_time, id").
		Offset(page - 1).
		Limit(1).
		Find(&covers).Error
	if err != nil {
		return nil, err
	}
	if len(covers) == 0 {
		return nil, nil
	}
	return &covers[0], nil
}

// CoverPage is the inverse of CoverByPage: the 1-indexed position of the
// given cover inside the same filtered, ordered sequence. A cover excluded
// by the filter (or missing entirely) is a hard ErrNotFound: callers use the
// result to deep-link to an exact page, so silently defaulting would point
// them at the wrong place.
func (r *Repo) CoverPage(ctx context.Context, coverID int64, f Filters) (int, error) {
	var ids []int64
	tx := r.db.WithContext(ctx).Model(&Cover{})
	err := f.Apply(KindCover, tx).
		Order("date_time, id").
		Pluck("covers.id", &ids).Error
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if id == coverID {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: page of cover #%d", ErrNotFound, coverID)
}

// ListAuthors returns the 1-indexed page of authors ordered by (name, id).
// A page past the end yields an empty slice.
func (r *Repo) ListAuthors(ctx context.Context, page, perPage int, f Filters) ([]Author, error) {
	var items []Author
	if page < 1 {
		return items, nil
	}
	tx := r.db.WithContext(ctx).Model(&Author{})
	err := f.Apply(KindAuthor, tx).
		Order("name, id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	return items, err
}

// ListGames returns the 1-indexed page of games ordered by (name, id).
func (r *Repo) ListGames(ctx context.Context, page, perPage int, f Filters) ([]Game, error) {
	var items []Game
	if page < 1 {
		return items, nil
	}
	tx := r.db.WithContext(ctx).Model(&Game{})
	err := f.Apply(KindGame, tx).
		Order("name, id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	return items, err
}

// ListGameSeries returns the 1-indexed page of series ordered by (name, id).
func (r *Repo) ListGameSeries(ctx context.Context, page, perPage int, f Filters) ([]GameSeries, error) {
	var items []GameSeries
	if page < 1 {
		return items, nil
	}
	tx := r.db.WithContext(ctx).Model(&GameSeries{})
	err := f.Apply(KindGameSeries, tx).
		Order("name, id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	return items, err
}
