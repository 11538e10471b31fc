package gormrepo

import (
	"context"
	"errors"

	"arbiter/internal/adapter/repo/gorm/model"
	"arbiter/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingConflictRepo struct {
	db *gorm.DB
}

func NewPendingConflictRepo(db *gorm.DB) PendingConflictRepo {
	return PendingConflictRepo{db: db}
}

func (r PendingConflictRepo) Save(ctx context.Context, record ports.PendingConflictRecord) error {
	m := model.PendingConflict{
		ConflictID: record.ConflictID,
		GuildID:    record.GuildID,
		Payload:    string(record.Payload),
		CreatedAt:  record.CreatedAt,
	}
	return getDBFromCtx(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conflict_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"guild_id", "payload"}),
		}).
		Create(&m).Error
}

func (r PendingConflictRepo) GetByConflictID(ctx context.Context, conflictID string) (ports.PendingConflictRecord, error) {
	var m model.PendingConflict
	err := getDBFromCtx(ctx, r.db).
		Where("conflict_id = ?", conflictID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PendingConflictRecord{}, ports.ErrNotFound
		}
		return ports.PendingConflictRecord{}, err
	}
	return ports.PendingConflictRecord{
		ConflictID: m.ConflictID,
		GuildID:    m.GuildID,
		Payload:    []byte(m.Payload),
		CreatedAt:  m.CreatedAt,
	}, nil
}

// Delete removes the pending record. When two resolution attempts race on
// the same conflict ID, row-level locking guarantees exactly one of them
// observes RowsAffected == 1; the other gets ErrNotFound.
func (r PendingConflictRepo) Delete(ctx context.Context, conflictID string) error {
	res := getDBFromCtx(ctx, r.db).
		Where("conflict_id = ?", conflictID).
		Delete(&model.PendingConflict{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r PendingConflictRepo) ListByGuildID(ctx context.Context, guildID string) ([]ports.PendingConflictRecord, error) {
	rows := []model.PendingConflict{}
	err := getDBFromCtx(ctx, r.db).
		Where("guild_id = ?", guildID).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "created_at"}}},
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.PendingConflictRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, ports.PendingConflictRecord{
			ConflictID: m.ConflictID,
			GuildID:    m.GuildID,
			Payload:    []byte(m.Payload),
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
