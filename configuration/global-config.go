package configuration

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"NucleusBot/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Discord struct {
		Token          string
		Prefix         string
		OwnerID        string
		AdminChannelID string
	}

	Database struct {
		Host     string
		Port     int
		Name     string
		User     string
		Password string
		Params   string
		MinConns int
		MaxConns int
	}

	Portal struct {
		BaseURL string
		Timeout time.Duration
	}

	Poll struct {
		Interval      time.Duration
		Workers       int
		RetryAttempts int
		RetryDelay    time.Duration
		AlertCooldown time.Duration
	}

	Commands struct {
		ReplyTimeout time.Duration
	}

	Notify struct {
		Rate  float64 // Messages per second across all channels.
		Burst int
	}

	Log struct {
		Dir   string
		Level string
	}

	StatusAddr string
}

var defaults = map[string]interface{}{
	"discord.prefix":         "!",
	"database.port":          3306,
	"database.params":        "?charset=utf8mb4&parseTime=True&loc=UTC",
	"database.min_conns":     1,
	"database.max_conns":     5,
	"portal.base_url":        "https://nucleus.amcspsgtech.in",
	"portal.timeout":         "30s",
	"poll.interval":          "600s",
	"poll.workers":           4,
	"poll.retry_attempts":    3,
	"poll.retry_delay":       "2s",
	"poll.alert_cooldown":    "1h",
	"commands.reply_timeout": "30s",
	"notify.rate":            5.0,
	"notify.burst":           5,
	"log.dir":                "logs",
	"log.level":              "info",
	"status.addr":            "",
}

// Load resolves the configuration from the environment, then the optional
// settings file, then defaults. Keys map to env vars by upper-casing and
// replacing dots, so discord.token is read from DISCORD_TOKEN.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", configFile, err)
		}
		logger.Log.Infof("Loaded settings file %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	var err error

	cfg.Discord.Token = v.GetString("discord.token")
	cfg.Discord.Prefix = v.GetString("discord.prefix")
	cfg.Discord.OwnerID = v.GetString("discord.owner_id")
	cfg.Discord.AdminChannelID = v.GetString("discord.admin_channel_id")

	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetInt("database.port")
	cfg.Database.Name = v.GetString("database.name")
	cfg.Database.User = v.GetString("database.user")
	cfg.Database.Password = v.GetString("database.password")
	cfg.Database.Params = v.GetString("database.params")
	cfg.Database.MinConns = v.GetInt("database.min_conns")
	cfg.Database.MaxConns = v.GetInt("database.max_conns")

	cfg.Portal.BaseURL = strings.TrimRight(v.GetString("portal.base_url"), "/")
	if cfg.Portal.Timeout, err = getDuration(v, "portal.timeout"); err != nil {
		return nil, err
	}

	if cfg.Poll.Interval, err = getDuration(v, "poll.interval"); err != nil {
		return nil, err
	}
	cfg.Poll.Workers = v.GetInt("poll.workers")
	cfg.Poll.RetryAttempts = v.GetInt("poll.retry_attempts")
	if cfg.Poll.RetryDelay, err = getDuration(v, "poll.retry_delay"); err != nil {
		return nil, err
	}
	if cfg.Poll.AlertCooldown, err = getDuration(v, "poll.alert_cooldown"); err != nil {
		return nil, err
	}

	if cfg.Commands.ReplyTimeout, err = getDuration(v, "commands.reply_timeout"); err != nil {
		return nil, err
	}

	cfg.Notify.Rate = v.GetFloat64("notify.rate")
	cfg.Notify.Burst = v.GetInt("notify.burst")

	cfg.Log.Dir = v.GetString("log.dir")
	cfg.Log.Level = v.GetString("log.level")
	cfg.StatusAddr = v.GetString("status.addr")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// getDuration accepts Go durations ("90s", "10m") or a bare number of seconds.
func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, raw)
	}
	return d, nil
}

func (c *Config) Validate() error {
	var missing []string

	required := []struct {
		key   string
		value string
	}{
		{"DISCORD_TOKEN", c.Discord.Token},
		{"DATABASE_HOST", c.Database.Host},
		{"DATABASE_NAME", c.Database.Name},
		{"DATABASE_USER", c.Database.User},
		{"PORTAL_BASE_URL", c.Portal.BaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %v", missing)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll.Interval)
	}
	if c.Poll.Workers < 1 {
		return fmt.Errorf("poll workers must be at least 1, got %d", c.Poll.Workers)
	}
	if c.Poll.RetryAttempts < 1 {
		return fmt.Errorf("poll retry attempts must be at least 1, got %d", c.Poll.RetryAttempts)
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database max conns (%d) is below min conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Notify.Rate <= 0 || c.Notify.Burst < 1 {
		return fmt.Errorf("notify rate and burst must be positive")
	}
	return nil
}

// DSN builds the MySQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.Params)
}

func (c *Config) LogValues() {
	logger.Log.Infof("Loaded configuration: PREFIX=%q, PORTAL=%s, POLL_INTERVAL=%v, POLL_WORKERS=%d, RETRY_ATTEMPTS=%d, "+
		"RETRY_DELAY=%v, ALERT_COOLDOWN=%v, REPLY_TIMEOUT=%v, NOTIFY_RATE=%.2f/s, DB_HOST=%s, ADMIN_CHANNEL set: %v",
		c.Discord.Prefix,
		c.Portal.BaseURL,
		c.Poll.Interval,
		c.Poll.Workers,
		c.Poll.RetryAttempts,
		c.Poll.RetryDelay,
		c.Poll.AlertCooldown,
		c.Commands.ReplyTimeout,
		c.Notify.Rate,
		c.Database.Host,
		c.Discord.AdminChannelID != "")
}
