package notify

import (
	"ShortLink-Backend/pkg/useragent"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxURLChars     = 100
	maxRefererChars = 50
	timeLayout      = "15:04:05 2/1/2006"
)

// Click is what a notification says about one resolution.
type Click struct {
	ShortID     string
	OriginalURL string
	IP          string
	UserAgent   string
	Referer     string
	At          time.Time
}

// Formatter renders click notifications in a fixed time zone.
type Formatter struct {
	loc *time.Location
}

// NewFormatter loads the named zone, falling back to UTC when it is unknown.
func NewFormatter(timeZone string) *Formatter {
	loc, err := time.LoadLocation(timeZone)
	if err != nil || timeZone == "" {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Format builds the HTML message. All dynamic values are escaped.
func (f *Formatter) Format(c Click) string {
	var b strings.Builder

	b.WriteString("🔗 <b>Link Clicked!</b>\n\n")
	fmt.Fprintf(&b, "📎 <b>Short ID:</b> <code>%s</code>\n", html.EscapeString(c.ShortID))
	fmt.Fprintf(&b, "🌐 <b>Original URL:</b> %s\n", html.EscapeString(truncate(c.OriginalURL, maxURLChars, "...")))
	fmt.Fprintf(&b, "📍 <b>IP:</b> <code>%s</code>\n", html.EscapeString(c.IP))
	fmt.Fprintf(&b, "🕐 <b>Time:</b> %s\n", c.At.In(f.loc).Format(timeLayout))
	if c.Referer != "" {
		fmt.Fprintf(&b, "📤 <b>Referer:</b> %s\n", html.EscapeString(truncate(c.Referer, maxRefererChars, "")))
	}
	fmt.Fprintf(&b, "📱 <b>Device:</b> %s", html.EscapeString(useragent.Label(c.UserAgent)))

	return b.String()
}

// truncate cuts s to max runes and appends suffix when it cut anything.
func truncate(s string, max int, suffix string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + suffix
}
