// Package users provides user records, token-backed sessions and the
// background cleanup of stale tokens for userapi.
//
// # Architecture
//
//	┌──────────────────────────────┐
//	│ Manager  │ SessionManager    │  ← CRUD and login/logout/authenticate
//	├──────────────────────────────┤
//	│ TokenCodec │ CleanupScheduler│  ← HS256 signing, daily sweep
//	├──────────────────────────────┤
//	│          Repository          │  ← users and tokens tables
//	├──────────────────────────────┤
//	│     GORM (SQLite/Postgres)   │
//	└──────────────────────────────┘
//
// # Sessions
//
// A login mints a signed token and persists a Token row for it. A request is
// authenticated only when that row exists with IsValid set and the signature
// and expiry verify. Logout flips IsValid on the row; the CleanupScheduler
// later deletes invalid rows and rows older than the configured maximum age.
//
// # Quick Start
//
//	config := users.DefaultConfig()
//	config.DatabaseURL = "./data/users.db"
//	config.JWTSecret = "your-secret-key"
//
//	repo, err := users.NewRepository(ctx, config, log)
//	if err != nil {
//		return err
//	}
//	defer repo.Close()
//
//	manager := users.NewManager(repo, log)
//	sessions := users.NewSessionManager(repo, users.NewTokenCodec(config.JWTSecret, config.TokenTTL), log)
//
//	result, err := sessions.Login(ctx, "user@example.com", "Password123")
package users
