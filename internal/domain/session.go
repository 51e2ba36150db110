package domain

import "time"

// StoredSession is the durable key/value row backing the session store. Key
// is the fixed storage name scoped to one browser profile; Value is the
// server-issued conversation session id.
type StoredSession struct {
	Key       string    `json:"key"        gorm:"type:varchar(191);primaryKey"`
	Value     string    `json:"value"      gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for StoredSession.
func (StoredSession) TableName() string { return "widget_sessions" }
