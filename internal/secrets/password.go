package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"scout-engine/internal/config"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "scout"

func GetSMTPPassword(account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("SMTP password not found (set it via POST /api/secrets/smtp)")
}

func SetSMTPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteSMTPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

func SMTPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf("scout:smtp:%s@%s", cfg.SMTP.Username, cfg.SMTP.Host)
}
