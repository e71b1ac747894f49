// Package sheets exports HF hospitalization summaries to Google Sheets.
package sheets

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Defaults for the spreadsheet created on first export and its tabs.
const (
	DefaultSpreadsheetName = "HF Hospitalization Summary"
	DefaultSummaryTab      = "HF Summary"
	DefaultEventsTab       = "HF Events"
)

// maxTabTitle is the longest sheet title the Sheets API accepts.
const maxTabTitle = 100

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	// SummaryTab gets one row per patient, EventsTab one row per listed
	// event. Empty titles fall back to the defaults.
	SummaryTab       string
	EventsTab        string
	TimeZone         string
	BatchSize        int
	RetryAttempts    int
	RetryDelay       time.Duration
	EnableFormatting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		SummaryTab:       DefaultSummaryTab,
		EventsTab:        DefaultEventsTab,
		EnableFormatting: true,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	summaryTab, eventsTab := c.Tabs()
	for _, title := range []string{summaryTab, eventsTab} {
		if strings.ContainsAny(title, "'[]*?:/\\") {
			return fmt.Errorf("tab title %q contains a character sheet ranges cannot quote", title)
		}
		if utf8.RuneCountInString(title) > maxTabTitle {
			return fmt.Errorf("tab title %q is longer than %d characters", title, maxTabTitle)
		}
	}
	if strings.EqualFold(summaryTab, eventsTab) {
		return fmt.Errorf("summary and events tabs must differ, both are %q", summaryTab)
	}

	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
		}
	}
	return nil
}

// Tabs returns the summary and events tab titles.
func (c *Config) Tabs() (summary, events string) {
	summary, events = strings.TrimSpace(c.SummaryTab), strings.TrimSpace(c.EventsTab)
	if summary == "" {
		summary = DefaultSummaryTab
	}
	if events == "" {
		events = DefaultEventsTab
	}
	return summary, events
}
