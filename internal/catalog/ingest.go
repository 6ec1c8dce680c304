package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DumpRecord is one cover entry of the exported community-wall dump.
type DumpRecord struct {
	PostID        int64        `json:"post_id"`
	PostURL       string       `json:"post_url"`
	PhotoPostURL  string       `json:"photo_post_url"`
	PhotoFileName string       `json:"photo_file_name"`
	CoverText     string       `json:"cover_text"`
	GameName      string       `json:"game_name"`
	GameSeries    string       `json:"game_series"`
	DateTime      string       `json:"date_time"`
	Authors       []DumpAuthor `json:"authors"`
}

type DumpAuthor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ingest loads the dump file into the catalog. The operation is a one-time
// bulk import but safe to re-run: every entity is get-or-create.
func (r *Repo) Ingest(ctx context.Context, dumpFile string) error {
	data, err := os.ReadFile(dumpFile)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}

	var records []DumpRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse dump: %w", err)
	}

	// Stable ingestion order: by post, then by image file name within a post.
	sort.Slice(records, func(i, j int) bool {
		if records[i].PostID != records[j].PostID {
			return records[i].PostID < records[j].PostID
		}
		return records[i].PhotoFileName < records[j].PhotoFileName
	})

	for i := range records {
		if err := r.ingestRecord(ctx, &records[i]); err != nil {
			return fmt.Errorf("record %q: %w", records[i].PhotoFileName, err)
		}
	}

	return r.MakeIdenticalAuthorsUnique(ctx)
}

func (r *Repo) ingestRecord(ctx context.Context, rec *DumpRecord) error {
	seriesID := UnknownSeriesID
	if strings.TrimSpace(rec.GameSeries) != "" {
		series, err := r.AddGameSeries(ctx, rec.GameSeries)
		if err != nil {
			return err
		}
		seriesID = series.ID
	}

	game, err := r.AddGame(ctx, rec.GameName, seriesID)
	if err != nil {
		return err
	}

	var authors []Author
	for _, da := range rec.Authors {
		author, err := r.AddAuthor(ctx, da.ID, da.Name, "")
		if err != nil {
			return err
		}
		authors = append(authors, *author)
	}

	var cover Cover
	err = r.db.WithContext(ctx).First(&cover, "file_name = ?", rec.PhotoFileName).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		dt, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(rec.DateTime, "Z"))
		if err != nil {
			dt, err = time.Parse("2006-01-02 15:04:05", rec.DateTime)
			if err != nil {
				return fmt.Errorf("parse date_time %q: %w", rec.DateTime, err)
			}
		}
		cover = Cover{
			Text:         rec.CoverText,
			FileName:     rec.PhotoFileName,
			URLPost:      rec.PostURL,
			URLPostImage: rec.PhotoPostURL,
			GameID:       game.ID,
			DateTime:     dt,
		}
		if err := r.db.WithContext(ctx).Create(&cover).Error; err != nil {
			return err
		}
	}

	for _, author := range authors {
		link := AuthorCover{AuthorID: author.ID, CoverID: cover.ID}
		err := r.db.WithContext(ctx).
			Where("author_id = ? AND cover_id = ?", author.ID, cover.ID).
			FirstOrCreate(&link).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// AddGameSeries gets or creates a series by name.
func (r *Repo) AddGameSeries(ctx context.Context, name string) (*GameSeries, error) {
	existing, err := r.GetGameSeriesByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	gs := GameSeries{Name: name, Slug: Slug(name)}
	if err := r.db.WithContext(ctx).Create(&gs).Error; err != nil {
		return nil, err
	}
	return &gs, nil
}

// AddGame gets or creates a game by name; seriesID 0 means the sentinel.
func (r *Repo) AddGame(ctx context.Context, name string, seriesID int64) (*Game, error) {
	existing, err := r.GetGameByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	g := Game{Name: name, Slug: Slug(name), SeriesID: seriesID}
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// AddAuthor gets or creates an author with an externally assigned id.
// An empty url defaults to the author's profile address.
func (r *Repo) AddAuthor(ctx context.Context, id int64, name, url string) (*Author, error) {
	var a Author
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if url == "" {
		url = fmt.Sprintf("https://vk.com/id%d", id)
	}
	a = Author{ID: id, Name: name, URL: url}
	if id == 0 {
		// gorm skips a zero primary key, the default author needs raw SQL.
		err = r.db.WithContext(ctx).Exec(
			"INSERT INTO authors (id, name, url) VALUES (0, ?, ?)", name, url,
		).Error
		if err != nil {
			return nil, err
		}
		return &a, nil
	}
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// MakeIdenticalAuthorsUnique suffixes the id to every display name shared by
// more than one author, e.g. "DELETED" -> "DELETED (id74388128)".
func (r *Repo) MakeIdenticalAuthorsUnique(ctx context.Context) error {
	var authors []Author
	if err := r.db.WithContext(ctx).Order("id").Find(&authors).Error; err != nil {
		return err
	}

	byName := map[string][]Author{}
	for _, a := range authors {
		byName[a.Name] = append(byName[a.Name], a)
	}

	for _, group := range byName {
		if len(group) == 1 {
			continue
		}
		for _, a := range group {
			newName := fmt.Sprintf("%s (id%d)", a.Name, a.ID)
			err := r.db.WithContext(ctx).Model(&Author{}).
				Where("id = ?", a.ID).
				Update("name", newName).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
