// Package main provides a tool that fills the user store with sample accounts
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memtensor/userapi/pkg/config"
	"github.com/memtensor/userapi/pkg/interfaces"
	"github.com/memtensor/userapi/pkg/logger"
	"github.com/memtensor/userapi/pkg/users"
)

var (
	configFile = flag.String("config", "", "Path to an optional YAML or JSON configuration file")
	envFile    = flag.String("env-file", ".env", "Path to the .env file")
	count      = flag.Int("count", 100, "Number of users to create")
)

var (
	roles      = []string{"admin", "user", "manager"}
	firstnames = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi", "Ivan", "Judy"}
	lastnames  = []string{"Smith", "Brown", "Johnson", "Williams", "Davis", "Miller", "Wilson", "Moore", "Taylor", "Anderson"}
	ages       = []int{22, 25, 28, 30, 35, 40}
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.NewLoader(*envFile, *configFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.New(os.Stdout, cfg.LogLevel)

	repo, err := users.NewRepository(ctx, cfg.Users(), appLogger)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer repo.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created, err := seed(ctx, repo, *count, rng, appLogger)
	if err != nil {
		return err
	}

	appLogger.Info("Seeding complete", map[string]interface{}{"users": created})
	return nil
}

// seed clears the users table and inserts count generated accounts.
// Account i logs in with email user<i>@example.com and password pass<i>.
func seed(ctx context.Context, repo *users.Repository, count int, rng *rand.Rand, log interfaces.Logger) (int, error) {
	removed, err := repo.DeleteAllUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear users: %w", err)
	}
	log.Info("Cleared users table", map[string]interface{}{"removed": removed})

	for i := 1; i <= count; i++ {
		user, err := sampleUser(i, rng)
		if err != nil {
			return i - 1, err
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			return i - 1, fmt.Errorf("failed to create %s: %w", user.Email, err)
		}
	}
	return count, nil
}

func sampleUser(i int, rng *rand.Rand) (*users.User, error) {
	hash, err := users.HashPassword(fmt.Sprintf("pass%d", i))
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	age := ages[rng.Intn(len(ages))]
	phone := fmt.Sprintf("1%d", 100000000+rng.Intn(900000000))

	return &users.User{
		Email:     fmt.Sprintf("user%d@example.com", i),
		Password:  hash,
		Firstname: firstnames[rng.Intn(len(firstnames))],
		Lastname:  lastnames[rng.Intn(len(lastnames))],
		Age:       &age,
		Phone:     &phone,
		Role:      roles[rng.Intn(len(roles))],
		IsActive:  rng.Float64() > 0.3,
	}, nil
}
