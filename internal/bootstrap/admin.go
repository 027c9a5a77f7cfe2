package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/config"
	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/password"
	"github.com/pankaj085/lotuslynx/internal/repository"
)

// EnsureAdmin creates the configured admin account if it does not exist.
// It is a no-op when ADMIN_USERNAME is unset.
func EnsureAdmin(users repository.UserRepository, hasher password.Hasher, node *snowflake.Node, cfg config.Config, logger *zap.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set when ADMIN_USERNAME is set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			if err := users.SetRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			logger.Info("admin account promoted", zap.String("username", cfg.AdminUsername))
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = users.Create(ctx, domain.User{
		ID:           node.Generate().Int64(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin account created", zap.String("username", cfg.AdminUsername))
	return nil
}
