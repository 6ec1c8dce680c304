package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActualizeUser upserts the user's display fields, bumps last_activity and
// increments the request counter. Concurrent interactions from the same
// identity may race on the counter; a lost increment is acceptable, the
// row itself is never corrupted (single UPDATE with an SQL expression).
func (r *Repo) ActualizeUser(ctx context.Context, u *TgUser) (*TgUser, error) {
	u.LastActivity = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "username", "language_code", "last_activity",
		}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&TgUser{}).
		Where("id = ?", u.ID).
		Update("number_requests", gorm.Expr("number_requests + 1")).Error
	if err != nil {
		return nil, err
	}

	var fresh TgUser
	if err := r.db.WithContext(ctx).First(&fresh, "id = ?", u.ID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &fresh, nil
}

// ActualizeChat is the chat-level counterpart of ActualizeUser. The request
// counter on the chat drives first-interaction onboarding.
func (r *Repo) ActualizeChat(ctx context.Context, c *TgChat) (*TgChat, error) {
	c.LastActivity = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "title", "username", "first_name", "last_name", "description", "last_activity",
		}),
	}).Create(c).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&TgChat{}).
		Where("id = ?", c.ID).
		Update("number_requests", gorm.Expr("number_requests + 1")).Error
	if err != nil {
		return nil, err
	}

	var fresh TgChat
	if err := r.db.WithContext(ctx).First(&fresh, "id = ?", c.ID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &fresh, nil
}
