// Package secrets reads and writes provider credentials in the OS keychain.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "jobtrack"

// ErrNotFound is returned when no credential is stored for an account.
var ErrNotFound = eris.New("secrets: credential not found")

// Get returns the secret stored for account.
func Get(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", eris.New("secrets: keyring account is empty")
	}
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", eris.Wrapf(ErrNotFound, "secrets: account %s", account)
	}
	if err != nil {
		return "", eris.Wrapf(err, "secrets: get %s", account)
	}
	if strings.TrimSpace(v) == "" {
		return "", eris.Wrapf(ErrNotFound, "secrets: account %s is empty", account)
	}
	return v, nil
}

// Set stores secret under account, replacing any previous value.
func Set(account, secret string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return eris.New("secrets: keyring account is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return eris.New("secrets: secret is empty")
	}
	if err := keyring.Set(KeyringService, account, secret); err != nil {
		return eris.Wrapf(err, "secrets: set %s", account)
	}
	return nil
}

// Delete removes the secret stored under account. Deleting a missing
// account returns ErrNotFound.
func Delete(account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return eris.New("secrets: keyring account is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return eris.Wrapf(ErrNotFound, "secrets: account %s", account)
	}
	if err != nil {
		return eris.Wrapf(err, "secrets: delete %s", account)
	}
	return nil
}

// UserAccount names the per-user keychain entry under a base account,
// e.g. "calendar:u1".
func UserAccount(base, userID string) string {
	return fmt.Sprintf("%s:%s", base, userID)
}

// IMAPAccount names the keychain entry for an IMAP login.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("jobtrack:imap:%s@%s", username, host)
}

// Lookup returns a per-user credential resolver. It tries the user's own
// entry under base, then base itself, then fallback. An empty base skips
// the keychain.
func Lookup(base, fallback string) func(ctx context.Context, userID string) (string, error) {
	return func(_ context.Context, userID string) (string, error) {
		if base != "" {
			for _, account := range []string{UserAccount(base, userID), base} {
				v, err := Get(account)
				if err == nil {
					return v, nil
				}
				if !errors.Is(err, ErrNotFound) {
					zap.L().Warn("secrets: keychain lookup failed",
						zap.String("account", account),
						zap.Error(err),
					)
				}
			}
		}
		if fallback != "" {
			return fallback, nil
		}
		return "", eris.Wrapf(ErrNotFound, "secrets: no credential for user %s", userID)
	}
}
