package domain

import "time"

// ClickLog is an append-only record of one resolution of a short link.
// ShortID references the link by value; deleting the link keeps its logs.
type ClickLog struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	ShortID   string    `gorm:"column:short_id;size:32;not null;index:idx_click_logs_short_at,priority:1" json:"shortId"`
	At        time.Time `gorm:"column:at;not null;index:idx_click_logs_short_at,priority:2,sort:desc;index:idx_click_logs_at" json:"at"`
	IP        *string   `gorm:"column:ip;size:64" json:"ip,omitempty"`
	UserAgent *string   `gorm:"column:user_agent;type:text" json:"userAgent,omitempty"`
	Referer   *string   `gorm:"column:referer;type:text" json:"referer,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (ClickLog) TableName() string {
	return "click_logs"
}

// GetUserAgent returns the captured user agent or an empty string.
func (c *ClickLog) GetUserAgent() string {
	if c.UserAgent != nil {
		return *c.UserAgent
	}
	return ""
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
