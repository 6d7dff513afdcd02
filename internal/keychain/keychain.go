package keychain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "inferbot"

	// TokenAccount is the keychain account holding the Telegram bot token.
	TokenAccount = "telegram_token"
)

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = errors.New("keychain: secret not found")

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	v, err := keyring.Get(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain get %s: %w", account, err)
	}
	return v, nil
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("keychain set %s: empty value", account)
	}
	if err := keyring.Set(serviceName, account, value); err != nil {
		return fmt.Errorf("keychain set %s: %w", account, err)
	}
	return nil
}

// Delete removes a stored secret. Deleting a missing secret is not an error.
func Delete(account string) error {
	err := keyring.Delete(serviceName, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete %s: %w", account, err)
	}
	return nil
}
