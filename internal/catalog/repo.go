package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	var a Author
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *Repo) GetGameSeries(ctx context.Context, id int64) (*GameSeries, error) {
	var gs GameSeries
	if err := r.db.WithContext(ctx).First(&gs, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &gs, nil
}

func (r *Repo) GetGame(ctx context.Context, id int64) (*Game, error) {
	var g Game
	err := r.db.WithContext(ctx).Preload("Series").First(&g, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

// GetGameSeriesBySlug looks a series up by its normalized key. The argument
// is slugged again as protection against arbitrary strings; a blank result
// is a defect of the caller.
func (r *Repo) GetGameSeriesBySlug(ctx context.Context, slug string) (*GameSeries, error) {
	slug = Slug(slug)
	if strings.TrimSpace(slug) == "" {
		return nil, notDefined("slug")
	}
	var gs GameSeries
	if err := r.db.WithContext(ctx).First(&gs, "slug = ?", slug).Error; err != nil {
		return nil, mapErr(err)
	}
	return &gs, nil
}

func (r *Repo) GetGameSeriesByName(ctx context.Context, name string) (*GameSeries, error) {
	if strings.TrimSpace(name) == "" {
		return nil, notDefined("name")
	}
	return r.GetGameSeriesBySlug(ctx, Slug(name))
}

func (r *Repo) GetGameBySlug(ctx context.Context, slug string) (*Game, error) {
	slug = Slug(slug)
	if strings.TrimSpace(slug) == "" {
		return nil, notDefined("slug")
	}
	var g Game
	err := r.db.WithContext(ctx).Preload("Series").First(&g, "slug = ?", slug).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

func (r *Repo) GetGameByName(ctx context.Context, name string) (*Game, error) {
	if strings.TrimSpace(name) == "" {
		return nil, notDefined("name")
	}
	return r.GetGameBySlug(ctx, Slug(name))
}

// FirstCover returns the earliest cover in the stable (date_time, id) order,
// or nil when the catalog is empty.
func (r *Repo) FirstCover(ctx context.Context) (*Cover, error) {
	var covers []Cover
	err := r.db.WithContext(ctx).Order("date_time, id").Limit(1).Find(&covers).Error
	if err != nil {
		return nil, err
	}
	if len(covers) == 0 {
		return nil, nil
	}
	return &covers[0], nil
}

// LastCover returns the latest cover in the stable order, or nil.
func (r *Repo) LastCover(ctx context.Context) (*Cover, error) {
	var covers []Cover
	err := r.db.WithContext(ctx).Order("date_time DESC, id DESC").Limit(1).Find(&covers).Error
	if err != nil {
		return nil, err
	}
	if len(covers) == 0 {
		return nil, nil
	}
	return &covers[0], nil
}

// CoverAuthors returns the authors linked to a cover, ordered by id.
func (r *Repo) CoverAuthors(ctx context.Context, coverID int64) ([]Author, error) {
	var authors []Author
	err := r.db.WithContext(ctx).Model(&Author{}).
		Where("id IN (?)", r.db.Session(&gorm.Session{NewDB: true}).
			Model(&AuthorCover{}).Select("author_id").Where("cover_id = ?", coverID)).
		Order("id").
		Find(&authors).Error
	return authors, err
}

// SaveCoverFileID persists the lazily captured Telegram file id.
func (r *Repo) SaveCoverFileID(ctx context.Context, coverID int64, fileID string) error {
	return r.db.WithContext(ctx).Model(&Cover{}).
		Where("id = ?", coverID).
		Update("server_file_id", fileID).Error
}

// CoversMissingFileID lists covers still lacking an uploaded media handle,
// in stable order, for the backfill job.
func (r *Repo) CoversMissingFileID(ctx context.Context) ([]Cover, error) {
	var covers []Cover
	err := r.db.WithContext(ctx).
		Where("server_file_id IS NULL OR server_file_id = ''").
		Order("date_time, id").
		Find(&covers).Error
	return covers, err
}

// FindCovers searches cover text, game name, series name and author names
// for the given substring, case-insensitively. SQLite's LIKE only folds
// ASCII, so the folding is done here; the catalog is small enough.
func (r *Repo) FindCovers(ctx context.Context, text string) ([]Cover, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	needle := strings.ToLower(text)

	var covers []Cover
	err := r.db.WithContext(ctx).
		Preload("Game").Preload("Game.Series").
		Order("date_time, id").
		Find(&covers).Error
	if err != nil {
		return nil, err
	}

	var found []Cover
	for i := range covers {
		c := &covers[i]
		full := c.Text
		if c.Game != nil {
			full += c.Game.Name + c.Game.SeriesName()
		}
		authors, err := r.CoverAuthors(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range authors {
			full += a.Name
		}
		if strings.Contains(strings.ToLower(full), needle) {
			found = append(found, *c)
		}
	}
	return found, nil
}

// TableCounts reports row counts for the catalog summary.
type TableCounts struct {
	Authors    int64
	GameSeries int64
	Games      int64
	Covers     int64
}

func (r *Repo) TableCounts(ctx context.Context) (TableCounts, error) {
	var tc TableCounts
	for _, c := range []struct {
		model interface{}
		dst   *int64
	}{
		{&Author{}, &tc.Authors},
		{&GameSeries{}, &tc.GameSeries},
		{&Game{}, &tc.Games},
		{&Cover{}, &tc.Covers},
	} {
		if err := r.db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return tc, err
		}
	}
	return tc, nil
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
