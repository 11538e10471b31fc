package model

import "time"

type PendingConflict struct {
	ConflictID string    `gorm:"column:conflict_id;primaryKey"`
	GuildID    string    `gorm:"column:guild_id;index:idx_pending_conflicts_guild"`
	Payload    string    `gorm:"column:payload;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (PendingConflict) TableName() string {
	return "pending_conflicts"
}
