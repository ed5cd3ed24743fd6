package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps uap-go with coarse device classification used by link stats.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string
	OS         string
	Raw        string
}

// NewParser loads regexes from regexFilePath, or the definitions bundled with uap-go when the path is empty.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath == "" {
		log.Info("User-Agent parser initialized with bundled regexes")
		return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))
	return &Parser{parser: parser, log: log}, nil
}

// ParseUserAgent parses a User-Agent string and returns detailed device information
func (p *Parser) ParseUserAgent(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{
			DeviceType: "unknown",
			Browser:    "unknown",
			OS:         "unknown",
		}
	}

	client := p.parser.Parse(userAgent)

	return &DeviceInfo{
		DeviceType: determineDeviceType(client, userAgent),
		Browser:    formatFamily(client.UserAgent.Family),
		OS:         formatFamily(client.Os.Family),
		Raw:        userAgent,
	}
}

// DeviceBreakdown folds raw user agent counts into counts per device type.
func (p *Parser) DeviceBreakdown(byAgent map[string]int64) map[string]int64 {
	devices := make(map[string]int64)
	for ua, n := range byAgent {
		devices[p.ParseUserAgent(ua).DeviceType] += n
	}
	return devices
}

var labelMarkers = []string{"iPhone", "iPad", "Android", "Windows", "Mac", "Linux"}

// Label returns a short human label for notifications: the first platform
// marker found in the raw string, "Browser" when none matches and "Unknown"
// for an empty user agent.
func Label(userAgent string) string {
	if userAgent == "" {
		return "Unknown"
	}
	for _, marker := range labelMarkers {
		if strings.Contains(userAgent, marker) {
			return marker
		}
	}
	return "Browser"
}

func determineDeviceType(client *uaparser.Client, userAgent string) string {
	if isBot(client, userAgent) {
		return "bot"
	}

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if containsAny(deviceFamily, "iPad", "Tablet", "Kindle", "Surface") {
			return "tablet"
		}
		if containsAny(deviceFamily, "iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone") {
			return "mobile"
		}
	}

	osFamily := client.Os.Family
	if containsAny(osFamily, "iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS", "Sailfish OS") {
		if isTabletOS(osFamily, userAgent) {
			return "tablet"
		}
		return "mobile"
	}

	if containsAny(osFamily, "Windows", "Mac OS X", "macOS", "Linux", "Ubuntu", "Chrome OS", "FreeBSD", "OpenBSD", "NetBSD") {
		return "desktop"
	}

	return "unknown"
}

func isBot(client *uaparser.Client, userAgent string) bool {
	if client.Device.Family == "Spider" {
		return true
	}
	indicators := []string{
		"Googlebot", "Bingbot", "Slurp", "DuckDuckBot", "Baiduspider",
		"YandexBot", "facebookexternalhit", "Twitterbot", "LinkedInBot",
		"TelegramBot", "bot", "crawler", "spider",
	}
	return containsAny(client.UserAgent.Family, indicators...) || containsAny(userAgent, indicators...)
}

// Android tablets usually omit "Mobile" from the user agent.
func isTabletOS(osFamily, userAgent string) bool {
	if containsAny(osFamily, "iOS") {
		return containsAny(userAgent, "iPad")
	}
	if containsAny(osFamily, "Android") {
		return !containsAny(userAgent, "Mobile")
	}
	return false
}

// containsAny is a case-insensitive substring check against several needles.
func containsAny(s string, needles ...string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func formatFamily(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
