// Package secrets stores the browser-automation actor token in the OS
// keychain, with an env var escape hatch for headless deployments.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "jobfeed"

	// EnvActorToken overrides the keychain when set. Useful in CI and on
	// hosts without a keyring daemon.
	EnvActorToken = "JOBFEED_ACTOR_TOKEN"
)

var ErrNoActorToken = errors.New("actor token not found (set it via the keychain or " + EnvActorToken + ")")

// GetActorToken resolves the actor API token: env first, then keychain.
func GetActorToken(keyringAccount string) (string, error) {
	if tok := strings.TrimSpace(os.Getenv(EnvActorToken)); tok != "" {
		return tok, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		tok, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(tok) != "" {
			return tok, nil
		}
	}
	return "", ErrNoActorToken
}

func SetActorToken(keyringAccount, token string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, token)
}

func DeleteActorToken(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
