package bot

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
)

const (
	// Fixed delay between uploads, to stay under the gateway's rate limits.
	backfillThrottle = 250 * time.Millisecond

	backfillReportEvery = 50
)

// onFillServerFileID is the admin maintenance command behind the lazy
// media-handle backfill: upload every cover image that has no Telegram file
// id yet, capture the handle, drop the scratch message, persist. Re-running
// only processes covers still missing a handle.
func (b *Bot) onFillServerFileID(c tele.Context) error {
	sender := c.Sender()
	if sender == nil || !b.cfg.IsAdmin(sender.Username) {
		return reply(c, "Команда доступна только администраторам", SeverityError)
	}

	ctx, cancel := reqCtx()
	covers, err := b.repo.CoversMissingFileID(ctx)
	cancel()
	if err != nil {
		return err
	}

	if len(covers) == 0 {
		return reply(c, "Все обложки уже загружены", SeverityInfo)
	}

	if err := reply(c, fmt.Sprintf("Обложек без server_file_id: %d. %s",
		len(covers), config.PleaseWait), SeverityInfo); err != nil {
		return err
	}

	done := 0
	failed := 0
	for i := range covers {
		cover := &covers[i]

		photo := &tele.Photo{File: tele.FromDisk(b.cfg.DataDir + "/" + cover.FileName)}
		msg, err := b.tb.Send(c.Chat(), photo)
		if err != nil {
			failed++
			b.log.Warn("backfill upload failed",
				"cover_id", cover.ID, "file", cover.FileName, "err", err)
			time.Sleep(backfillThrottle)
			continue
		}

		fileID := ""
		if msg.Photo != nil {
			fileID = msg.Photo.FileID
		}

		// The scratch message only existed to obtain the handle.
		if err := b.tb.Delete(msg); err != nil {
			b.log.Warn("backfill delete scratch failed", "cover_id", cover.ID, "err", err)
		}

		if fileID == "" {
			failed++
			b.log.Warn("backfill got no file id", "cover_id", cover.ID)
			time.Sleep(backfillThrottle)
			continue
		}

		ctx, cancel := reqCtx()
		err = b.repo.SaveCoverFileID(ctx, cover.ID, fileID)
		cancel()
		if err != nil {
			failed++
			b.log.Warn("backfill persist failed", "cover_id", cover.ID, "err", err)
			time.Sleep(backfillThrottle)
			continue
		}

		done++
		if done%backfillReportEvery == 0 {
			if err := reply(c, fmt.Sprintf("Загружено %d из %d", done, len(covers)),
				SeverityInfo); err != nil {
				return err
			}
		}
		time.Sleep(backfillThrottle)
	}

	return reply(c, fmt.Sprintf("Готово: загружено %d, ошибок %d", done, failed),
		SeverityInfo)
}
