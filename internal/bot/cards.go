package bot

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
)

// Photo captions are limited separately from message text.
const maxCaptionLength = 1024

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func btn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func urlBtn(text, url string) tele.InlineButton {
	return tele.InlineButton{Text: text, URL: url}
}

func markup(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// navRow builds the ⬅️ N/total ➡️ paginator row. The middle button carries
// the current page's own payload: pressing it is a no-op the reconciler
// short-circuits.
func navRow(page int, total int64, encode func(page int) string) []tele.InlineButton {
	var row []tele.InlineButton
	if page > 1 {
		row = append(row, btn("⬅️", encode(page-1)))
	}
	row = append(row, btn(fmt.Sprintf("%d/%d", page, total), encode(page)))
	if int64(page) < total {
		row = append(row, btn("➡️", encode(page+1)))
	}
	return row
}

func (b *Bot) coverPhoto(cover *catalog.Cover) *tele.Photo {
	if cover.ServerFileID != nil && *cover.ServerFileID != "" {
		return &tele.Photo{File: tele.File{FileID: *cover.ServerFileID}}
	}
	return &tele.Photo{File: tele.FromDisk(b.cfg.DataDir + "/" + cover.FileName)}
}

// coverView renders the cover card at the given page of the filtered view.
// A page past the end yields a nil-Photo informational view.
func (b *Bot) coverView(ctx context.Context, c tele.Context, page int, f catalog.Filters, forceNew bool) (View, error) {
	total, err := b.repo.Count(ctx, catalog.KindCover, f)
	if err != nil {
		return View{}, err
	}

	cover, err := b.repo.CoverByPage(ctx, page, f)
	if err != nil {
		return View{}, err
	}
	if cover == nil {
		return View{
			Text:     SeverityInfo.format(fmt.Sprintf("Обложки на странице %d нет", page)),
			ForceNew: true,
		}, nil
	}

	authors, err := b.repo.CoverAuthors(ctx, cover.ID)
	if err != nil {
		return View{}, err
	}

	var lines []string
	if cover.Text != "" {
		lines = append(lines, shorten(cover.Text, 300))
	}
	if cover.Game != nil {
		lines = append(lines, "Игра: "+cover.Game.Name)
		if name := cover.Game.SeriesName(); name != "" {
			lines = append(lines, "Серия: "+name)
		}
	}
	if len(authors) > 0 {
		var names []string
		for _, a := range authors {
			names = append(names, a.Name)
		}
		lines = append(lines, "Авторы: "+strings.Join(names, ", "))
	}
	lines = append(lines, "Пост: "+cover.URLPost)
	caption := shorten(strings.Join(lines, "\n"), maxCaptionLength)

	encode := func(p int) string {
		pp := int64(p)
		return TplCoverPage.Encode(&pp, f.ByAuthor, f.ByGameSeries, f.ByGame)
	}
	rows := [][]tele.InlineButton{navRow(page, total, encode)}

	// Scoped browsing: each button reopens this same cover inside the
	// narrowed view, at its page there (the inverse page lookup).
	if cover.Game != nil {
		if f.ByGame == nil {
			if row, err := b.scopeRow(ctx, cover, "🎮 "+cover.Game.Name,
				catalog.Filters{ByGame: &cover.GameID}); err != nil {
				return View{}, err
			} else if row != nil {
				rows = append(rows, row)
			}
		}
		if f.ByGameSeries == nil && cover.Game.SeriesName() != "" {
			seriesID := cover.Game.SeriesID
			if row, err := b.scopeRow(ctx, cover, "📚 "+cover.Game.SeriesName(),
				catalog.Filters{ByGameSeries: &seriesID}); err != nil {
				return View{}, err
			} else if row != nil {
				rows = append(rows, row)
			}
		}
	}
	if f.ByAuthor == nil {
		for i, a := range authors {
			if i >= 3 {
				break
			}
			authorID := a.ID
			row, err := b.scopeRow(ctx, cover, "👤 "+a.Name,
				catalog.Filters{ByAuthor: &authorID})
			if err != nil {
				return View{}, err
			}
			if row != nil {
				rows = append(rows, row)
			}
		}
	}

	shareURL := b.deepLinkURL(DeepLinkCover, cover.ID, c.Chat().ID, messageID(c))
	rows = append(rows, []tele.InlineButton{
		btn("Открыть новым сообщением", TplCoverOpen.Encode(&cover.ID)),
	})
	rows = append(rows, []tele.InlineButton{urlBtn("Поделиться", shareURL)})

	return View{
		Text:     caption,
		Photo:    b.coverPhoto(cover),
		Markup:   markup(rows...),
		ForceNew: forceNew,
	}, nil
}

// scopeRow builds a single narrow-the-view button: the label plus the
// cover's page number inside that narrowed view.
func (b *Bot) scopeRow(ctx context.Context, cover *catalog.Cover, label string, f catalog.Filters) ([]tele.InlineButton, error) {
	page, err := b.repo.CoverPage(ctx, cover.ID, f)
	if err != nil {
		return nil, err
	}
	p := int64(page)
	data := TplCoverPage.Encode(&p, f.ByAuthor, f.ByGameSeries, f.ByGame)
	return []tele.InlineButton{btn(shorten(label, 40), data)}, nil
}

func (b *Bot) authorView(ctx context.Context, c tele.Context, authorID int64, forceNew bool) (View, error) {
	author, err := b.repo.GetAuthor(ctx, authorID)
	if err != nil {
		return View{}, err
	}

	covers, err := b.repo.Count(ctx, catalog.KindCover, catalog.Filters{ByAuthor: &author.ID})
	if err != nil {
		return View{}, err
	}
	games, err := b.repo.Count(ctx, catalog.KindGame, catalog.Filters{ByAuthor: &author.ID})
	if err != nil {
		return View{}, err
	}

	text := fmt.Sprintf("Автор: %s\n%s\nОбложек: %d, игр: %d",
		author.Name, author.URL, covers, games)

	page := int64(1)
	rows := [][]tele.InlineButton{
		{btn("Обложки автора", TplCoverPage.Encode(&page, &author.ID, nil, nil))},
		{urlBtn("Поделиться", b.deepLinkURL(DeepLinkAuthor, author.ID, c.Chat().ID, messageID(c)))},
	}
	return View{Text: text, Markup: markup(rows...), ForceNew: forceNew}, nil
}

func (b *Bot) gameView(ctx context.Context, c tele.Context, gameID int64, forceNew bool) (View, error) {
	game, err := b.repo.GetGame(ctx, gameID)
	if err != nil {
		return View{}, err
	}

	covers, err := b.repo.Count(ctx, catalog.KindCover, catalog.Filters{ByGame: &game.ID})
	if err != nil {
		return View{}, err
	}
	authors, err := b.repo.Count(ctx, catalog.KindAuthor, catalog.Filters{ByGame: &game.ID})
	if err != nil {
		return View{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Игра: %s\n", game.Name)
	if name := game.SeriesName(); name != "" {
		fmt.Fprintf(&sb, "Серия: %s\n", name)
	}
	fmt.Fprintf(&sb, "Обложек: %d, авторов: %d", covers, authors)

	page := int64(1)
	rows := [][]tele.InlineButton{
		{btn("Обложки игры", TplCoverPage.Encode(&page, nil, nil, &game.ID))},
	}
	if game.SeriesID != catalog.UnknownSeriesID {
		rows = append(rows, []tele.InlineButton{
			btn("Серия игр", TplGameSeriesCard.Encode(&game.SeriesID)),
		})
	}
	rows = append(rows, []tele.InlineButton{
		urlBtn("Поделиться", b.deepLinkURL(DeepLinkGame, game.ID, c.Chat().ID, messageID(c))),
	})
	return View{Text: sb.String(), Markup: markup(rows...), ForceNew: forceNew}, nil
}

func (b *Bot) gameSeriesView(ctx context.Context, c tele.Context, seriesID int64, forceNew bool) (View, error) {
	series, err := b.repo.GetGameSeries(ctx, seriesID)
	if err != nil {
		return View{}, err
	}

	games, err := b.repo.Count(ctx, catalog.KindGame, catalog.Filters{ByGameSeries: &series.ID})
	if err != nil {
		return View{}, err
	}
	covers, err := b.repo.Count(ctx, catalog.KindCover, catalog.Filters{ByGameSeries: &series.ID})
	if err != nil {
		return View{}, err
	}

	text := fmt.Sprintf("Серия игр: %s\nИгр: %d, обложек: %d", series.Name, games, covers)

	page := int64(1)
	rows := [][]tele.InlineButton{
		{btn("Обложки серии", TplCoverPage.Encode(&page, nil, &series.ID, nil))},
		{btn("Игры серии", TplGamesPage.Encode(&page, &series.ID))},
		{urlBtn("Поделиться", b.deepLinkURL(DeepLinkGameSeries, series.ID, c.Chat().ID, messageID(c)))},
	}
	return View{Text: text, Markup: markup(rows...), ForceNew: forceNew}, nil
}

// listTotalPages is ceil(count/perPage) with a floor of 1.
func listTotalPages(count int64, perPage int) int64 {
	pages := (count + int64(perPage) - 1) / int64(perPage)
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (b *Bot) authorsListView(ctx context.Context, page int) (View, error) {
	var f catalog.Filters
	count, err := b.repo.Count(ctx, catalog.KindAuthor, f)
	if err != nil {
		return View{}, err
	}
	items, err := b.repo.ListAuthors(ctx, page, b.cfg.ItemsPerPage, f)
	if err != nil {
		return View{}, err
	}

	var rows [][]tele.InlineButton
	for i := range items {
		a := items[i]
		rows = append(rows, []tele.InlineButton{
			btn(shorten(a.Name, 40), TplAuthorCard.Encode(&a.ID)),
		})
	}
	rows = append(rows, navRow(page, listTotalPages(count, b.cfg.ItemsPerPage), func(p int) string {
		pp := int64(p)
		return TplAuthorsPage.Encode(&pp)
	}))

	return View{
		Text:   fmt.Sprintf("Авторы (%d):", count),
		Markup: markup(rows...),
	}, nil
}

func (b *Bot) gamesListView(ctx context.Context, page int, seriesID *int64) (View, error) {
	f := catalog.Filters{ByGameSeries: seriesID}
	count, err := b.repo.Count(ctx, catalog.KindGame, f)
	if err != nil {
		return View{}, err
	}
	items, err := b.repo.ListGames(ctx, page, b.cfg.ItemsPerPage, f)
	if err != nil {
		return View{}, err
	}

	var rows [][]tele.InlineButton
	for i := range items {
		g := items[i]
		rows = append(rows, []tele.InlineButton{
			btn(shorten(g.Name, 40), TplGameCard.Encode(&g.ID)),
		})
	}
	rows = append(rows, navRow(page, listTotalPages(count, b.cfg.ItemsPerPage), func(p int) string {
		pp := int64(p)
		return TplGamesPage.Encode(&pp, seriesID)
	}))

	return View{
		Text:   fmt.Sprintf("Игры (%d):", count),
		Markup: markup(rows...),
	}, nil
}

func (b *Bot) gameSeriesListView(ctx context.Context, page int) (View, error) {
	var f catalog.Filters
	count, err := b.repo.Count(ctx, catalog.KindGameSeries, f)
	if err != nil {
		return View{}, err
	}
	items, err := b.repo.ListGameSeries(ctx, page, b.cfg.ItemsPerPage, f)
	if err != nil {
		return View{}, err
	}

	var rows [][]tele.InlineButton
	for i := range items {
		gs := items[i]
		rows = append(rows, []tele.InlineButton{
			btn(shorten(gs.Name, 40), TplGameSeriesCard.Encode(&gs.ID)),
		})
	}
	rows = append(rows, navRow(page, listTotalPages(count, b.cfg.ItemsPerPage), func(p int) string {
		pp := int64(p)
		return TplGameSeriesPage.Encode(&pp)
	}))

	return View{
		Text:   fmt.Sprintf("Серии игр (%d):", count),
		Markup: markup(rows...),
	}, nil
}

// messageID returns the id of the interaction's message, for deep links.
func messageID(c tele.Context) int {
	if msg := c.Message(); msg != nil {
		return msg.ID
	}
	return 0
}
