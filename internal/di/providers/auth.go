package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/streakup-server/internal/auth"
	"github.com/listenupapp/streakup-server/internal/config"
	"github.com/listenupapp/streakup-server/internal/logger"
)

// AuthKey is the hex-encoded PASETO key.
type AuthKey string

// ProvideAuthKey uses the configured key or loads (generating on first run)
// the one kept in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key := cfg.Auth.AccessTokenKey
	source := "config"
	if key == "" {
		var err error
		if key, err = auth.LoadOrGenerateKey(cfg.Storage.DataPath); err != nil {
			return "", err
		}
		source = "data_path"
		cfg.Auth.AccessTokenKey = key
	}

	log.Info("Authentication key loaded",
		"source", source,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Auth.AccessTokenDuration)
}
