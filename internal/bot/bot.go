package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
	"github.com/gil9red/telegram--farguscovers-bot/internal/logger"
)

// Bounded wait for any single interaction's catalog work; exceeding it
// surfaces as an error mapped to the generic failure message.
const requestTimeout = 5 * time.Second

type Bot struct {
	cfg  config.Config
	log  *logger.Logger
	repo *catalog.Repo

	tb       *tele.Bot
	username string

	workers int
}

func New(cfg config.Config, log *logger.Logger, repo *catalog.Repo) (*Bot, error) {
	b := &Bot{
		cfg:     cfg,
		log:     log.With("component", "bot"),
		repo:    repo,
		workers: runtime.NumCPU(),
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: b.onError,
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	b.tb = tb
	b.username = tb.Me.Username

	tb.Use(b.requestMiddleware)
	b.registerHandlers()

	return b, nil
}

// Start polls updates and fans them out to a fixed pool of workers. The
// gateway's fetch loop stays single; handlers run concurrently, so two rapid
// presses from the same user may be processed out of order.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info("bot started", "username", b.username, "workers", b.workers)

	updates := make(chan tele.Update, b.workers*2)
	stop := make(chan struct{})

	go b.tb.Poller.Poll(b.tb, updates, stop)

	var wg sync.WaitGroup
	wg.Add(b.workers)
	for i := 0; i < b.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case u := <-updates:
					b.tb.ProcessUpdate(u)
				}
			}
		}()
	}

	<-ctx.Done()
	// The poller owns the updates channel, so it is never closed here; any
	// buffered updates are dropped on shutdown.
	close(stop)
	wg.Wait()
	b.log.Info("bot stopped")
}

// reqCtx bounds one interaction's catalog work.
func reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// onError is the terminal failure path: full context goes to the log, the
// user gets the one generic severity-tagged message.
func (b *Bot) onError(err error, c tele.Context) {
	if c == nil {
		b.log.Error("handler failed", "err", err)
		return
	}

	fields := []interface{}{"err", err}
	if chat := c.Chat(); chat != nil {
		fields = append(fields, "chat_id", chat.ID)
	}
	if sender := c.Sender(); sender != nil {
		fields = append(fields, "user_id", sender.ID, "username", sender.Username)
	}
	if msg := c.Message(); msg != nil {
		fields = append(fields, "message", msg.Text)
	}
	if cb := c.Callback(); cb != nil {
		fields = append(fields, "callback_data", cb.Data)
	}
	b.log.Error("handler failed", fields...)

	_ = reply(c, config.ErrorText, SeverityError)
}

// isUserFacingMiss distinguishes lookups the handler converts into a calm
// message from genuine failures.
func isUserFacingMiss(err error) bool {
	return errors.Is(err, catalog.ErrNotFound)
}
