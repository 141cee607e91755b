package main

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/observability"
	"github.com/spec-kit/task-service/internal/persistence"
	"github.com/spec-kit/task-service/internal/repository"
)

// Seeds the Admin and Developer roles plus one account for each, so a fresh
// deployment has a working login. Existing records are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool := pg.PoolHandle()
	roleRepo := repository.NewRoleRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	adminRole := &domain.Role{Name: domain.RoleAdmin, Description: "System administrator with full access"}
	if err := roleRepo.Upsert(ctx, adminRole); err != nil {
		logger.Fatal("failed to seed admin role", zap.Error(err))
	}
	devRole := &domain.Role{Name: domain.RoleDeveloper, Description: "Standard developer role with limited access"}
	if err := roleRepo.Upsert(ctx, devRole); err != nil {
		logger.Fatal("failed to seed developer role", zap.Error(err))
	}

	seedUser(ctx, logger, userRepo, cfg.Auth.BcryptCost, "System Admin", cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, adminRole)
	seedUser(ctx, logger, userRepo, cfg.Auth.BcryptCost, "Default Developer", cfg.Seed.DevEmail, cfg.Seed.DevPassword, devRole)

	logger.Info("role and user seeding complete")
}

func seedUser(ctx context.Context, logger *zap.Logger, users repository.UserRepository, bcryptCost int, name, email, password string, role *domain.Role) {
	if _, err := users.GetByEmail(ctx, email); err == nil {
		logger.Info("user already exists", zap.String("email", email))
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		logger.Fatal("failed to check user", zap.String("email", email), zap.Error(err))
	}

	hash, err := auth.HashPassword(password, bcryptCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("failed to seed user", zap.String("email", email), zap.Error(err))
	}
	logger.Info("user created", zap.String("email", email), zap.String("role", role.Name))
}
