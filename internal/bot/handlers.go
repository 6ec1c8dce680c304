package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
)

// Main reply-keyboard button labels; matched as free text too.
const (
	btnTextCovers     = "Обложки"
	btnTextAuthors    = "Авторы"
	btnTextGames      = "Игры"
	btnTextGameSeries = "Серии игр"
)

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.onStart)
	b.tb.Handle("/help", b.onHelp)
	b.tb.Handle("/fill_server_file_id", b.onFillServerFileID)
	b.tb.Handle(tele.OnText, b.onText)
	b.tb.Handle(tele.OnCallback, b.onCallback)
}

func mainKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	m.Reply(
		m.Row(m.Text(btnTextCovers)),
		m.Row(m.Text(btnTextAuthors), m.Text(btnTextGames), m.Text(btnTextGameSeries)),
	)
	return m
}

// onStart is the entry point: with a deep-link argument it reopens a shared
// entity, otherwise it shows the catalog summary and the main keyboard.
func (b *Bot) onStart(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload != "" {
		return b.handleDeepLink(c, payload)
	}
	return b.sendSummary(c)
}

func (b *Bot) onHelp(c tele.Context) error {
	return b.sendSummary(c)
}

func (b *Bot) sendSummary(c tele.Context) error {
	ctx, cancel := reqCtx()
	defer cancel()

	counts, err := b.repo.TableCounts(ctx)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("Бот для отображения обложек группы ВК ")
	sb.WriteString(config.DefaultAuthorURL)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Обложек: %d\nАвторов: %d\nИгр: %d\nСерий игр: %d\n",
		counts.Covers, counts.Authors, counts.Games, counts.GameSeries)

	first, err := b.repo.FirstCover(ctx)
	if err != nil {
		return err
	}
	last, err := b.repo.LastCover(ctx)
	if err != nil {
		return err
	}
	if first != nil && last != nil {
		fmt.Fprintf(&sb, "Обложки с %s по %s\n",
			first.DateTime.Format("02.01.2006"), last.DateTime.Format("02.01.2006"))
	}

	if isFirstRequest(c) {
		sb.WriteString("\nНажмите «Обложки», чтобы начать просмотр. ")
		sb.WriteString("Отправьте число, чтобы перейти к обложке с этим номером.")
	}

	return reply(c, sb.String(), SeverityNone, mainKeyboard())
}

// onText routes free text: keyboard labels, entity list words, a bare
// number as a page jump, anything else as a catalog search.
func (b *Bot) onText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())

	switch strings.ToLower(text) {
	case "covers", "обложки":
		return b.showCoverPage(c, 1, catalog.Filters{})
	case "authors", "авторы":
		return b.showAuthorsList(c, 1)
	case "games", "игры":
		return b.showGamesList(c, 1, nil)
	case "game_series", "серии игр":
		return b.showGameSeriesList(c, 1)
	}

	if page, err := strconv.Atoi(text); err == nil {
		return b.showCoverPage(c, page, catalog.Filters{})
	}

	return b.searchCovers(c, text)
}

func (b *Bot) showCoverPage(c tele.Context, page int, f catalog.Filters) error {
	ctx, cancel := reqCtx()
	defer cancel()

	v, err := b.coverView(ctx, c, page, f, false)
	if err != nil {
		return err
	}
	return b.deliver(c, v)
}

func (b *Bot) showAuthorsList(c tele.Context, page int) error {
	ctx, cancel := reqCtx()
	defer cancel()

	v, err := b.authorsListView(ctx, page)
	if err != nil {
		return err
	}
	return b.deliver(c, v)
}

func (b *Bot) showGamesList(c tele.Context, page int, seriesID *int64) error {
	ctx, cancel := reqCtx()
	defer cancel()

	v, err := b.gamesListView(ctx, page, seriesID)
	if err != nil {
		return err
	}
	return b.deliver(c, v)
}

func (b *Bot) showGameSeriesList(c tele.Context, page int) error {
	ctx, cancel := reqCtx()
	defer cancel()

	v, err := b.gameSeriesListView(ctx, page)
	if err != nil {
		return err
	}
	return b.deliver(c, v)
}

// searchCovers answers free text that is neither a button nor a number.
func (b *Bot) searchCovers(c tele.Context, text string) error {
	ctx, cancel := reqCtx()
	defer cancel()

	found, err := b.repo.FindCovers(ctx, text)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return reply(c, fmt.Sprintf("По запросу %q ничего не найдено", text), SeverityInfo)
	}

	if len(found) == 1 {
		page, err := b.repo.CoverPage(ctx, found[0].ID, catalog.Filters{})
		if err != nil {
			return err
		}
		v, err := b.coverView(ctx, c, page, catalog.Filters{}, true)
		if err != nil {
			return err
		}
		return b.deliver(c, v)
	}

	var rows [][]tele.InlineButton
	for i := range found {
		if i >= b.cfg.ItemsPerPage {
			break
		}
		cover := &found[i]
		page, err := b.repo.CoverPage(ctx, cover.ID, catalog.Filters{})
		if err != nil {
			return err
		}
		label := cover.Text
		if label == "" && cover.Game != nil {
			label = cover.Game.Name
		}
		p := int64(page)
		rows = append(rows, []tele.InlineButton{
			btn(fmt.Sprintf("%d. %s", page, shorten(label, 35)),
				TplCoverPage.Encode(&p, nil, nil, nil)),
		})
	}

	return b.deliver(c, View{
		Text:   searchResultsTitle(len(found), len(rows)),
		Markup: markup(rows...),
	})
}

// searchResultsTitle reports the match count, noting when only the first
// page of buttons is shown.
func searchResultsTitle(total, shown int) string {
	if shown < total {
		return fmt.Sprintf("Найдено обложек: %d, показаны первые %d", total, shown)
	}
	return fmt.Sprintf("Найдено обложек: %d", total)
}

// onCallback dispatches button presses by token template. The press is
// always acknowledged so the client-side spinner closes even on failure.
func (b *Bot) onCallback(c tele.Context) error {
	defer func() {
		_ = c.Respond()
	}()

	data := strings.TrimSpace(strings.TrimPrefix(c.Callback().Data, "\f"))

	// Callback payloads arrive from the client and may be forged; a payload
	// no template decodes is logged and ignored, never dispatched.
	if values, ok := TplCoverPage.Decode(data); ok {
		page := 1
		if values[0] != nil {
			page = int(*values[0])
		}
		f := catalog.Filters{
			ByAuthor:     values[1],
			ByGameSeries: values[2],
			ByGame:       values[3],
		}
		return b.showCoverPage(c, page, f)
	}

	if values, ok := TplCoverOpen.Decode(data); ok {
		if values[0] == nil {
			return fmt.Errorf("cover open token without id: %q", data)
		}
		return b.openCoverAsNew(c, *values[0])
	}

	if values, ok := TplAuthorsPage.Decode(data); ok {
		return b.showAuthorsList(c, pageOr1(values[0]))
	}

	if values, ok := TplGamesPage.Decode(data); ok {
		return b.showGamesList(c, pageOr1(values[0]), values[1])
	}

	if values, ok := TplGameSeriesPage.Decode(data); ok {
		return b.showGameSeriesList(c, pageOr1(values[0]))
	}

	if values, ok := TplAuthorCard.Decode(data); ok {
		if values[0] == nil {
			return fmt.Errorf("author card token without id: %q", data)
		}
		return b.showEntityCard(c, DeepLinkAuthor, *values[0], false)
	}

	if values, ok := TplGameCard.Decode(data); ok {
		if values[0] == nil {
			return fmt.Errorf("game card token without id: %q", data)
		}
		return b.showEntityCard(c, DeepLinkGame, *values[0], false)
	}

	if values, ok := TplGameSeriesCard.Decode(data); ok {
		if values[0] == nil {
			return fmt.Errorf("game series card token without id: %q", data)
		}
		return b.showEntityCard(c, DeepLinkGameSeries, *values[0], false)
	}

	b.log.Warn("unknown callback payload", "data", data)
	return nil
}

func pageOr1(v *int64) int {
	if v == nil {
		return 1
	}
	return int(*v)
}

// openCoverAsNew renders the pressed cover as a fresh message, leaving the
// existing card untouched.
func (b *Bot) openCoverAsNew(c tele.Context, coverID int64) error {
	ctx, cancel := reqCtx()
	defer cancel()

	page, err := b.repo.CoverPage(ctx, coverID, catalog.Filters{})
	if err != nil {
		return err
	}
	v, err := b.coverView(ctx, c, page, catalog.Filters{}, true)
	if err != nil {
		return err
	}
	return b.deliver(c, v)
}

// showEntityCard renders the card for a non-cover entity.
func (b *Bot) showEntityCard(c tele.Context, kind DeepLinkKind, id int64, forceNew bool) error {
	ctx, cancel := reqCtx()
	defer cancel()

	var v View
	var err error
	switch kind {
	case DeepLinkAuthor:
		v, err = b.authorView(ctx, c, id, forceNew)
	case DeepLinkGame:
		v, err = b.gameView(ctx, c, id, forceNew)
	case DeepLinkGameSeries:
		v, err = b.gameSeriesView(ctx, c, id, forceNew)
	default:
		return fmt.Errorf("unknown card kind %q", kind)
	}
	if err != nil {
		if isUserFacingMiss(err) {
			return reply(c, "Запись не найдена", SeverityInfo)
		}
		return err
	}
	return b.deliver(c, v)
}

// handleDeepLink resolves a start argument into the entity card it names
// and deletes the triggering /start message to keep the chat clean.
func (b *Bot) handleDeepLink(c tele.Context, payload string) error {
	dl, err := DecodeDeepLink(payload, c.Chat().ID)
	if err != nil {
		// Tokens only come from this bot; a bad one is corruption, not input.
		return err
	}

	ctx, cancel := reqCtx()
	defer cancel()

	var v View
	switch dl.Kind {
	case DeepLinkCover:
		page, err := b.repo.CoverPage(ctx, dl.EntityID, catalog.Filters{})
		if err != nil {
			return err
		}
		v, err = b.coverView(ctx, c, page, catalog.Filters{}, true)
		if err != nil {
			return err
		}
	case DeepLinkAuthor:
		v, err = b.authorView(ctx, c, dl.EntityID, true)
	case DeepLinkGame:
		v, err = b.gameView(ctx, c, dl.EntityID, true)
	case DeepLinkGameSeries:
		v, err = b.gameSeriesView(ctx, c, dl.EntityID, true)
	default:
		return fmt.Errorf("unknown deep link kind %q", dl.Kind)
	}
	if err != nil {
		return err
	}

	if err := b.sendWithReply(c, v, dl.ReplyTo); err != nil {
		return err
	}

	if err := c.Delete(); err != nil {
		b.log.Warn("delete start message failed", "err", err)
	}
	return nil
}

// sendWithReply always sends a fresh message, optionally quoting the
// message the deep link was shared from.
func (b *Bot) sendWithReply(c tele.Context, v View, replyTo *int) error {
	var opts []interface{}
	if v.Markup != nil {
		opts = append(opts, v.Markup)
	}
	if replyTo != nil {
		opts = append(opts, &tele.SendOptions{
			ReplyTo: &tele.Message{ID: *replyTo, Chat: c.Chat()},
		})
	}
	if v.Photo != nil {
		v.Photo.Caption = v.Text
		return c.Send(v.Photo, opts...)
	}
	return c.Send(v.Text, opts...)
}
