package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"
)

const serviceName = "wtldr"

// PasswordEnv is consulted when the keyring holds no mail password.
const PasswordEnv = "WTLDR_MAIL_PASSWORD"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/wtldr/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("wtldr-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// MailKey is the keyring key holding the IMAP password for username.
func MailKey(username string) string {
	return "mail:" + username
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Label: "wtldr " + key,
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// MailPassword resolves the IMAP password for username: the keyring
// first, then WTLDR_MAIL_PASSWORD from the environment or a .env file in
// envDir.
func MailPassword(username, envDir string) (string, error) {
	if pw, err := Get(MailKey(username)); err == nil && pw != "" {
		return pw, nil
	}
	return envPassword(envDir)
}

// envPassword reads PasswordEnv, loading envDir/.env first when present.
// Variables already set in the environment win over the file.
func envPassword(envDir string) (string, error) {
	if envDir != "" {
		err := godotenv.Load(filepath.Join(envDir, ".env"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("loading .env: %w", err)
		}
	}

	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	return "", fmt.Errorf("no mail password: run `wtldr credential set` or set %s", PasswordEnv)
}
