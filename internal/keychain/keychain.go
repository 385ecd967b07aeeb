package keychain

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	serviceName    = "tgrambot"
	defaultAccount = "default"
)

// ErrNotFound is returned when no token is stored for the bot.
var ErrNotFound = keyring.ErrNotFound

func account(bot string) string {
	if bot == "" {
		return defaultAccount
	}
	return bot
}

// Token retrieves the bot token stored for the named bot.
func Token(bot string) (string, error) {
	tok, err := keyring.Get(serviceName, account(bot))
	if err != nil {
		return "", fmt.Errorf("keychain lookup for %q: %w", account(bot), err)
	}
	return tok, nil
}

// SetToken stores the bot token for the named bot.
func SetToken(bot, token string) error {
	return keyring.Set(serviceName, account(bot), token)
}

// DeleteToken removes the stored token for the named bot.
func DeleteToken(bot string) error {
	return keyring.Delete(serviceName, account(bot))
}
