// Package main seeds a StreakUp database with demo users, habits and
// completion history.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/.streakup --users 3 --habits 4 --days 60
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/listenupapp/streakup-server/internal/auth"
	"github.com/listenupapp/streakup-server/internal/config"
	"github.com/listenupapp/streakup-server/internal/di/providers"
	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/logger"
	"github.com/listenupapp/streakup-server/internal/service"
	"github.com/listenupapp/streakup-server/internal/store"
)

const seedPassword = "streakup-seed"

var habitNames = []string{"Read", "Work out", "Meditate", "Run", "Drink water", "Sleep early", "Write code", "Save money"}

var cli struct {
	DataPath string  `help:"Directory holding the database." type:"path" default:"~/.streakup" env:"DATA_PATH"`
	Driver   string  `help:"Storage backend." enum:"badger,sqlite" default:"badger" env:"STORAGE_DRIVER"`
	Users    int     `help:"Number of demo users." default:"3"`
	Habits   int     `help:"Habits per user." default:"4"`
	Days     int     `help:"Days of completion history to generate." default:"60"`
	Rate     float64 `help:"Probability that a habit was completed on a given day." default:"0.7"`
	Seed     uint64  `help:"Random seed; 0 picks one from the clock."`
	Verbose  bool    `help:"Log every service call." short:"v"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Populate a StreakUp database with demo data."),
		kong.UsageOnError(),
	)

	kctx.FatalIfErrorf(run(context.Background()))
}

func run(ctx context.Context) error {
	if cli.Users <= 0 || cli.Habits <= 0 || cli.Days < 0 {
		return errors.New("users and habits must be positive, days must not be negative")
	}
	if err := os.MkdirAll(cli.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data path: %w", err)
	}

	level := logger.ParseLevel("warn")
	if cli.Verbose {
		level = logger.ParseLevel("debug")
	}
	log := logger.New(logger.Config{Level: level, Environment: "development"})

	st, path, err := providers.OpenStore(config.StorageConfig{Driver: cli.Driver, DataPath: cli.DataPath}, log)
	if err != nil {
		return err
	}
	defer st.Close()
	fmt.Printf("Seeding %s database at %s\n", cli.Driver, filepath.Clean(path))

	key, err := auth.LoadOrGenerateKey(cli.DataPath)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	if err != nil {
		return err
	}

	authSvc := service.NewAuthService(st, tokens, service.RegistrationPolicy{}, nil, log.Logger)
	habitSvc := service.NewHabitService(st, nil, log.Logger)

	seed := cli.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	for u := 1; u <= cli.Users; u++ {
		user, err := ensureUser(ctx, authSvc, st, u)
		if err != nil {
			return err
		}

		completions := 0
		for h := 0; h < cli.Habits; h++ {
			habit, err := habitSvc.Create(ctx, user.ID, service.CreateHabitRequest{
				Name:  habitNames[h%len(habitNames)],
				Color: domain.HabitColors[(u+h)%len(domain.HabitColors)],
				Icon:  domain.HabitIcons[h%len(domain.HabitIcons)],
			})
			if err != nil {
				return fmt.Errorf("create habit for %s: %w", user.Email, err)
			}

			n, err := backfill(ctx, habitSvc, rng, user.ID, habit.ID)
			if err != nil {
				return err
			}
			completions += n
		}

		fmt.Printf("  %s: %d habits, %d completions\n", user.Email, cli.Habits, completions)
	}

	fmt.Printf("Done. Log in with any seeded email and password %q\n", seedPassword)
	return nil
}

// ensureUser registers seed user n, reusing the account when it already exists.
func ensureUser(ctx context.Context, authSvc *service.AuthService, st store.Store, n int) (*domain.User, error) {
	email := fmt.Sprintf("seed-%d@streakup.local", n)
	user, err := authSvc.Register(ctx, service.RegisterRequest{
		Name:     fmt.Sprintf("Seed User %d", n),
		Email:    email,
		Password: seedPassword,
	})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	return st.GetUserByEmail(ctx, email)
}

// backfill completes the habit on a random subset of the last cli.Days days,
// oldest first, so streaks build the way they would in real use.
func backfill(ctx context.Context, habitSvc *service.HabitService, rng *rand.Rand, userID, habitID string) (int, error) {
	now := time.Now().UTC()
	count := 0
	for d := cli.Days; d >= 0; d-- {
		if rng.Float64() >= cli.Rate {
			continue
		}
		at := now.AddDate(0, 0, -d)
		if _, err := habitSvc.Complete(ctx, userID, habitID, &at); err != nil {
			if errors.Is(err, domainerrors.ErrDuplicateCompletion) {
				continue
			}
			return count, fmt.Errorf("complete habit %s: %w", habitID, err)
		}
		count++
	}
	return count, nil
}
