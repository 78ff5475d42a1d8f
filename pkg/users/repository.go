package users

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/memtensor/userapi/pkg/interfaces"
)

// ErrRecordNotFound is returned by updates and deletes that match no row
var ErrRecordNotFound = errors.New("record not found")

// Repository provides data access for users and tokens
type Repository struct {
	db     *gorm.DB
	config *Config
	logger interfaces.Logger
}

// NewRepository connects to the configured database, retrying with exponential
// backoff until ConnectTimeout elapses, and migrates the schema.
func NewRepository(ctx context.Context, config *Config, log interfaces.Logger) (*Repository, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.DatabaseType == "sqlite" && !isMemoryDSN(config.DatabaseURL) {
		if err := os.MkdirAll(filepath.Dir(config.DatabaseURL), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var db *gorm.DB
	operation := func() error {
		conn, err := gorm.Open(dialector(config), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to get database handle: %w", err))
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}

		// SQLite serializes writers; one connection avoids "database is locked"
		if config.DatabaseType == "sqlite" {
			sqlDB.SetMaxOpenConns(1)
		}

		db = conn
		return nil
	}

	retryConfig := backoff.NewExponentialBackOff()
	retryConfig.MaxElapsedTime = config.ConnectTimeout

	notify := func(err error, next time.Duration) {
		if log != nil {
			log.Warn("Database not ready, retrying", map[string]interface{}{
				"database_type": config.DatabaseType,
				"retry_in":      next.String(),
				"error":         err.Error(),
			})
		}
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(retryConfig, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	repo := &Repository{
		db:     db,
		config: config,
		logger: log,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dialector(config *Config) gorm.Dialector {
	if config.DatabaseType == "postgres" {
		return postgres.Open(config.DatabaseURL)
	}
	return sqlite.Open(config.DatabaseURL)
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "mode=memory")
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	return r.db.AutoMigrate(&User{}, &Token{})
}

// User operations

// CreateUser inserts a user; a duplicate email surfaces as the driver's constraint error
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByID retrieves a user by ID; nil when absent
func (r *Repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FindUserByEmail retrieves a user by exact email; nil when absent
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateUser applies column updates to one user and returns the stored row
func (r *Repository) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*User, error) {
	db := r.db.WithContext(ctx)

	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to update user %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		if err := db.Where("id = ?", id).First(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to reload user: %w", err)
		}
	}

	return &user, nil
}

// DeleteUser permanently removes a user
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete user %s: %w", id, ErrRecordNotFound)
	}
	return nil
}

// DeleteAllUsers empties the users table
func (r *Repository) DeleteAllUsers(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&User{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete users: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListUsers returns one page of users matching filter together with the total match count
func (r *Repository) ListUsers(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	filter = filter.Normalize()
	db := r.db.WithContext(ctx)

	var total int64
	if err := filter.apply(db.Model(&User{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := make([]User, 0)
	if err := filter.apply(db.Model(&User{})).
		Order("created_at ASC").Order("id ASC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Token operations

// CreateToken persists an issued token
func (r *Repository) CreateToken(ctx context.Context, token *Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// FindToken retrieves a token record; nil when absent
func (r *Repository) FindToken(ctx context.Context, token string) (*Token, error) {
	var record Token
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &record, nil
}

// InvalidateToken marks every valid row carrying token as invalid and returns how many changed
func (r *Repository) InvalidateToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Token{}).
		Where("token = ? AND is_valid = ?", token, true).
		Update("is_valid", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate token: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteStaleTokens removes invalid tokens and tokens created before cutoff
func (r *Repository) DeleteStaleTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_valid = ? OR created_at < ?", false, cutoff).
		Delete(&Token{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Utility operations

// HealthCheck pings the underlying database
func (r *Repository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ interfaces.HealthChecker = (*Repository)(nil)
