package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "993", cfg.Mail.Port)
	assert.True(t, cfg.Mail.TLS)
	assert.Equal(t, "INBOX", cfg.Mail.Mailbox)
	assert.Equal(t, "dan@tldrnewsletter.com", cfg.Mail.NewsletterSender)
	assert.False(t, cfg.Mail.ArchiveAfterFetch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3600, cfg.Poll.IntervalSec)
	assert.Equal(t, filepath.Join(ConfigDir(), "wtldr.db"), cfg.Database.Path)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `mail:
  host: imap.example.com
  username: me@example.com
  archive_after_fetch: true
database:
  path: /tmp/x.db
poll:
  interval_sec: -5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "imap.example.com", cfg.Mail.Host)
	assert.Equal(t, "me@example.com", cfg.Mail.Username)
	assert.True(t, cfg.Mail.ArchiveAfterFetch)
	assert.Equal(t, "993", cfg.Mail.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 3600, cfg.Poll.IntervalSec)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("WTLDR_MAIL_HOST", "imap.env.example")
	t.Setenv("WTLDR_POLL_INTERVAL_SEC", "60")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "imap.env.example", cfg.Mail.Host)
	assert.Equal(t, 60, cfg.Poll.IntervalSec)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mail: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Mail.Host = "imap.example.com"
	cfg.Poll.IntervalSec = 120

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
