package catalog

import "time"

// UnknownSeriesName labels the sentinel GameSeries row (id 0) that keeps
// the Game→GameSeries relationship total for games without a series.
const UnknownSeriesName = "<Без серии>"

// UnknownSeriesID is the primary key of the sentinel series row.
const UnknownSeriesID int64 = 0

type GameSeries struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
	Slug string `gorm:"type:text;uniqueIndex;not null"`
}

func (GameSeries) TableName() string { return "game_series" }

func (gs *GameSeries) IsUnknown() bool { return gs.ID == UnknownSeriesID }

type Game struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
	Slug string `gorm:"type:text;uniqueIndex;not null"`

	// 0 points at the sentinel series, never NULL.
	SeriesID int64       `gorm:"index;not null;default:0"`
	Series   *GameSeries `gorm:"foreignKey:SeriesID"`
}

func (Game) TableName() string { return "games" }

func (g *Game) SeriesName() string {
	if g.Series == nil || g.Series.IsUnknown() {
		return ""
	}
	return g.Series.Name
}

type Cover struct {
	ID           int64  `gorm:"primaryKey"`
	Text         string `gorm:"type:text;not null"`
	FileName     string `gorm:"type:text;uniqueIndex;not null"`
	URLPost      string `gorm:"type:text;not null"`
	URLPostImage string `gorm:"type:text;not null"`

	GameID int64 `gorm:"index;not null"`
	Game   *Game `gorm:"foreignKey:GameID"`

	// Telegram file id, captured lazily the first time the image is uploaded.
	ServerFileID *string `gorm:"type:text"`

	DateTime time.Time `gorm:"index;not null"`
}

func (Cover) TableName() string { return "covers" }

type Author struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
	URL  string `gorm:"type:text;uniqueIndex;not null"`
}

func (Author) TableName() string { return "authors" }

// AuthorCover links authors to covers, many-to-many.
type AuthorCover struct {
	ID       int64 `gorm:"primaryKey"`
	AuthorID int64 `gorm:"uniqueIndex:uniq_author_cover,priority:1;not null"`
	CoverID  int64 `gorm:"uniqueIndex:uniq_author_cover,priority:2;not null"`
}

func (AuthorCover) TableName() string { return "author_covers" }

type TgUser struct {
	ID           int64   `gorm:"primaryKey"`
	FirstName    string  `gorm:"type:text;not null"`
	LastName     *string `gorm:"type:text"`
	Username     *string `gorm:"type:text"`
	LanguageCode *string `gorm:"type:text"`

	LastActivity   time.Time `gorm:"not null"`
	NumberRequests int64     `gorm:"not null;default:0"`
}

func (TgUser) TableName() string { return "tg_users" }

type TgChat struct {
	ID          int64   `gorm:"primaryKey"`
	Type        string  `gorm:"type:text;not null"`
	Title       *string `gorm:"type:text"`
	Username    *string `gorm:"type:text"`
	FirstName   *string `gorm:"type:text"`
	LastName    *string `gorm:"type:text"`
	Description *string `gorm:"type:text"`

	LastActivity   time.Time `gorm:"not null"`
	NumberRequests int64     `gorm:"not null;default:0"`
}

func (TgChat) TableName() string { return "tg_chats" }

// IsFirstRequest reports whether the current interaction is the first one
// seen from this chat (the activity counter has just been created or bumped
// to 1), used to show onboarding help once.
func (c *TgChat) IsFirstRequest() bool {
	return c.NumberRequests == 0 || c.NumberRequests == 1
}
