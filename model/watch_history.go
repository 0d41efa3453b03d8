package model

import "time"

// WatchHistoryEntry records that a user watched a video. Stored through GORM,
// unlike the users table which stays on plain database/sql.
type WatchHistoryEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_watch_user;not null" json:"userId"`
	VideoRef  string    `gorm:"size:64;not null" json:"videoRef"`
	WatchedAt time.Time `gorm:"autoCreateTime" json:"watchedAt"`
}

// TableName pins the GORM table name.
func (WatchHistoryEntry) TableName() string {
	return "watch_history"
}
