package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fontanka/edc-check/internal/sheets"
)

// sheetsSetting binds one text setting to its viper key and the
// GOOGLE_SHEETS_* variable read when the key is unset.
type sheetsSetting struct {
	target *string
	key    string
	env    string
	path   bool
}

func sheetsSettings(config *sheets.Config) []sheetsSetting {
	return []sheetsSetting{
		{target: &config.ServiceAccountPath, key: "sheets.service_account_path", env: "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", path: true},
		{target: &config.ClientID, key: "sheets.client_id", env: "GOOGLE_SHEETS_CLIENT_ID"},
		{target: &config.ClientSecret, key: "sheets.client_secret", env: "GOOGLE_SHEETS_CLIENT_SECRET"},
		{target: &config.RefreshToken, key: "sheets.refresh_token", env: "GOOGLE_SHEETS_REFRESH_TOKEN"},
		{target: &config.SpreadsheetID, key: "sheets.spreadsheet_id", env: "GOOGLE_SHEETS_SPREADSHEET_ID"},
		{target: &config.SpreadsheetName, key: "sheets.spreadsheet_name", env: "GOOGLE_SHEETS_SPREADSHEET_NAME"},
		{target: &config.SummaryTab, key: "sheets.summary_tab"},
		{target: &config.EventsTab, key: "sheets.events_tab"},
		{target: &config.TimeZone, key: "sheets.timezone"},
	}
}

// LoadSheetsConfig builds the export configuration. Each setting comes from
// viper (config file or HFH_SHEETS_* variables), then from the matching
// GOOGLE_SHEETS_* variable, then from sheets.DefaultConfig.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	for _, s := range sheetsSettings(&config) {
		v := strings.TrimSpace(viper.GetString(s.key))
		if v == "" && s.env != "" {
			v = strings.TrimSpace(os.Getenv(s.env))
		}
		if v == "" {
			continue
		}
		if s.path {
			v = ExpandPath(v)
		}
		*s.target = v
	}

	if viper.IsSet("sheets.batch_size") {
		config.BatchSize = viper.GetInt("sheets.batch_size")
	}
	if viper.IsSet("sheets.formatting") {
		config.EnableFormatting = viper.GetBool("sheets.formatting")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
