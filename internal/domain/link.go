package domain

import "time"

// ShortLink maps a short code to its redirect target.
type ShortLink struct {
	ID          int64      `gorm:"primaryKey;column:id" json:"id"`
	ShortID     string     `gorm:"column:short_id;size:32;uniqueIndex;not null" json:"shortId"`
	OriginalURL string     `gorm:"column:original_url;type:text;not null" json:"originalUrl"`
	OwnerID     *int64     `gorm:"column:owner_id;index:idx_short_links_owner_created,priority:1" json:"owner,omitempty"` // nil for anonymous links
	Clicks      int64      `gorm:"column:clicks;not null;default:0" json:"clicks"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_short_links_owner_created,priority:2,sort:desc" json:"createdAt"`
}

// TableName возвращает название таблицы для GORM
func (ShortLink) TableName() string {
	return "short_links"
}

// IsExpired reports whether the link had an expiry that is already in the past at now.
func (l *ShortLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// IsOwnedBy reports whether the link belongs to the given user.
func (l *ShortLink) IsOwnedBy(userID int64) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}
