package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	appModels "github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/workflow"
)

// AdminSettings is the bootstrap admin account from configuration
type AdminSettings struct {
	Username string
	Password string
	Email    string
}

// RoleCounter counts users per role
type RoleCounter interface {
	CountByRole(ctx context.Context, role appModels.RoleType) (int64, error)
}

// AdminCreator creates (or finds) an admin account
type AdminCreator interface {
	EnsureAdmin(ctx context.Context, username, password, email string) (*appModels.User, error)
}

// ErrNoAdminConfigured is returned when there is no admin and none is configured
var ErrNoAdminConfigured = errors.New("no admin account exists and none is configured")

// CreateDefaultAdmin creates the configured admin when the portal has no admin yet.
// Existing admins are never touched, so changing the configured password later has no effect.
func CreateDefaultAdmin(ctx context.Context, users RoleCounter, creator AdminCreator, admin AdminSettings, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking for an admin account...")

	count, err := users.CountByRole(ctx, workflow.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		lgr.Info().Int64("admins", count).Msg("Admin account already exists, skipping creation")
		return nil
	}

	if admin.Username == "" || admin.Password == "" {
		lgr.Warn().Msg("No admin account configured; set ADMIN_USERNAME and ADMIN_PASSWORD")
		return ErrNoAdminConfigured
	}

	user, err := creator.EnsureAdmin(ctx, admin.Username, admin.Password, admin.Email)
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	lgr.Info().Int64("adminID", user.ID).Str("username", user.Username).Msg("Default admin user created successfully")
	return nil
}
