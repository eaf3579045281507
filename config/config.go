package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration, assembled from the
// environment (optionally seeded from a .env file).
type Config struct {
	MTUCI    MTUCIConfig
	Scraping ScrapingConfig
	Google   GoogleConfig
	Export   ExportConfig
	GitHub   GitHubConfig
	Log      LogConfig
	Daemon   DaemonConfig
}

// MTUCIConfig holds the portal credentials and entry points.
type MTUCIConfig struct {
	Email       string
	Password    string
	BaseURL     string
	LoginURL    string
	ScheduleURL string
}

// ScrapingConfig holds the knobs the scraper consumes at construction.
type ScrapingConfig struct {
	MaxRetries       int
	Timeout          time.Duration
	DefaultBuilding  string
	DefaultGroup     string
	LenientTimeRange bool
	Headless         bool
	SlowMo           time.Duration
}

// GoogleConfig configures the Google Calendar sink.
type GoogleConfig struct {
	Enabled         bool
	CredentialsPath string
	TokenPath       string
	CalendarID      string
	CalendarName    string
}

// ExportConfig configures local ICS export. An empty path disables it.
type ExportConfig struct {
	ICSPath string
}

// GitHubConfig configures upload of the exported ICS feed. An empty token
// disables the upload.
type GitHubConfig struct {
	Token string
	Repo  string
	Path  string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// DaemonConfig enables the periodic re-sync loop.
type DaemonConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from environment variables, e.g. MTUCI_EMAIL for
// the key "mtuci.email". A .env file in the working directory is loaded
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("mtuci.base_url", "https://lk.mtuci.ru")
	v.SetDefault("scraping.max_retries", 5)
	v.SetDefault("scraping.timeout", "60s")
	v.SetDefault("scraping.default_building", "Н")
	v.SetDefault("scraping.default_group", "БИК2404")
	v.SetDefault("scraping.lenient_time_range", true)
	v.SetDefault("scraping.headless", true)
	v.SetDefault("scraping.slow_mo", "50ms")
	v.SetDefault("google.enabled", true)
	v.SetDefault("google.credentials_path", "credentials.json")
	v.SetDefault("google.token_path", "token.json")
	v.SetDefault("google.calendar_name", "МТУСИ Расписание")
	v.SetDefault("export.ics_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("daemon.enabled", false)
	v.SetDefault("daemon.interval", "10m")

	cfg := &Config{
		MTUCI: MTUCIConfig{
			Email:       v.GetString("mtuci.email"),
			Password:    v.GetString("mtuci.password"),
			BaseURL:     strings.TrimRight(v.GetString("mtuci.base_url"), "/"),
			LoginURL:    v.GetString("mtuci.login_url"),
			ScheduleURL: v.GetString("mtuci.schedule_url"),
		},
		Scraping: ScrapingConfig{
			MaxRetries:       v.GetInt("scraping.max_retries"),
			Timeout:          v.GetDuration("scraping.timeout"),
			DefaultBuilding:  v.GetString("scraping.default_building"),
			DefaultGroup:     v.GetString("scraping.default_group"),
			LenientTimeRange: v.GetBool("scraping.lenient_time_range"),
			Headless:         v.GetBool("scraping.headless"),
			SlowMo:           v.GetDuration("scraping.slow_mo"),
		},
		Google: GoogleConfig{
			Enabled:         v.GetBool("google.enabled"),
			CredentialsPath: v.GetString("google.credentials_path"),
			TokenPath:       v.GetString("google.token_path"),
			CalendarID:      v.GetString("google.calendar_id"),
			CalendarName:    v.GetString("google.calendar_name"),
		},
		Export: ExportConfig{
			ICSPath: v.GetString("export.ics_path"),
		},
		GitHub: GitHubConfig{
			Token: v.GetString("github.token"),
			Repo:  v.GetString("github.repo"),
			Path:  v.GetString("github.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Daemon: DaemonConfig{
			Enabled:  v.GetBool("daemon.enabled"),
			Interval: v.GetDuration("daemon.interval"),
		},
	}

	if cfg.MTUCI.LoginURL == "" {
		cfg.MTUCI.LoginURL = cfg.MTUCI.BaseURL + "/auth/login"
	}
	if cfg.MTUCI.ScheduleURL == "" {
		cfg.MTUCI.ScheduleURL = cfg.MTUCI.BaseURL + "/student/schedule"
	}

	if cfg.MTUCI.Email == "" || cfg.MTUCI.Password == "" {
		return nil, errors.New("MTUCI_EMAIL and MTUCI_PASSWORD must be set")
	}
	if cfg.Google.Enabled && cfg.Google.CalendarID == "" {
		return nil, errors.New("GOOGLE_CALENDAR_ID must be set when the calendar sink is enabled")
	}

	return cfg, nil
}
