package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/streakup-server/internal/config"
	"github.com/listenupapp/streakup-server/internal/logger"
	"github.com/listenupapp/streakup-server/internal/store"
	"github.com/listenupapp/streakup-server/internal/store/sqlite"
)

// StoreHandle wraps the selected store backend with shutdown capability.
type StoreHandle struct {
	store.Store
	Driver string
	Path   string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the store backend chosen by the storage driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, path, err := OpenStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", path)

	return &StoreHandle{Store: st, Driver: cfg.Storage.Driver, Path: path}, nil
}

// OpenStore opens the backend for cfg under its data path and returns the
// database location it used.
func OpenStore(cfg config.StorageConfig, log *logger.Logger) (store.Store, string, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		path := filepath.Join(cfg.DataPath, "streakup.db")
		st, err := store.New(path, log.Logger)
		if err != nil {
			return nil, "", err
		}
		return st, path, nil
	case config.DriverSQLite:
		path := filepath.Join(cfg.DataPath, "streakup.sqlite")
		st, err := sqlite.Open(path, log.Logger)
		if err != nil {
			return nil, "", err
		}
		return st, path, nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
