package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MailConfig holds the IMAP account and newsletter settings.
type MailConfig struct {
	// Host and Port address the IMAP server.
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// Username is the mailbox login. The password is never stored in the
	// config file; see the credential package.
	Username string `mapstructure:"username" yaml:"username"`

	// TLS selects implicit TLS; otherwise STARTTLS is used.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// Mailbox is the folder searched for newsletters.
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`

	// NewsletterSender is the From address newsletters arrive from.
	NewsletterSender string `mapstructure:"newsletter_sender" yaml:"newsletter_sender"`

	// ArchiveAfterFetch moves newly stored messages out of Mailbox.
	ArchiveAfterFetch bool `mapstructure:"archive_after_fetch" yaml:"archive_after_fetch"`
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls log level and destination.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`

	// Dir, when set, receives one timestamped log file per process.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// PollConfig controls the watch loop.
type PollConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Poll     PollConfig     `mapstructure:"poll" yaml:"poll"`
}

const (
	defaultNewsletterSender = "dan@tldrnewsletter.com"
	defaultPollIntervalSec  = 3600
)

// ConfigDir returns ~/.config/wtldr, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "wtldr")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/wtldr/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailConfig{
			Port:             "993",
			TLS:              true,
			Mailbox:          "INBOX",
			NewsletterSender: defaultNewsletterSender,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(ConfigDir(), "wtldr.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Poll: PollConfig{
			IntervalSec: defaultPollIntervalSec,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// WTLDR_* environment variables override file values (for example
// WTLDR_MAIL_HOST). If the file does not exist the defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("wtldr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv can see every key during Unmarshal.
	def := defaultAppConfig()
	v.SetDefault("mail.host", def.Mail.Host)
	v.SetDefault("mail.port", def.Mail.Port)
	v.SetDefault("mail.username", def.Mail.Username)
	v.SetDefault("mail.tls", def.Mail.TLS)
	v.SetDefault("mail.mailbox", def.Mail.Mailbox)
	v.SetDefault("mail.newsletter_sender", def.Mail.NewsletterSender)
	v.SetDefault("mail.archive_after_fetch", def.Mail.ArchiveAfterFetch)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.dir", def.Logging.Dir)
	v.SetDefault("poll.interval_sec", def.Poll.IntervalSec)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Poll.IntervalSec <= 0 {
		cfg.Poll.IntervalSec = defaultPollIntervalSec
	}
	if cfg.Mail.Mailbox == "" {
		cfg.Mail.Mailbox = "INBOX"
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mail", cfg.Mail)
	v.Set("database", cfg.Database)
	v.Set("logging", cfg.Logging)
	v.Set("poll", cfg.Poll)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
