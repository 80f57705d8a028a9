package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/uniuri"
)

// AdminUsername is the account created on an empty user table.
const AdminUsername = "admin"

// seed creates the admin role and, on an empty user table, an admin account
// with a random password that is logged once.
func seed(cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	role, err := authService.EnsureAdminRole()
	if err != nil {
		return errors.Wrap(err, "failed to seed admin role")
	}

	local := auth.NewLocalProvider(db)

	count, err := local.CountUsers()
	if err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	password, err := uniuri.Password()
	if err != nil {
		return errors.Wrap(err, "failed to generate admin password")
	}

	domain := cfg.Webserver.Domain
	if domain == "" {
		domain = "localhost"
	}

	if _, err = local.CreateUser(AdminUsername, AdminUsername+"@"+domain, password, role.ID); err != nil {
		return errors.Wrap(err, "failed to create admin account")
	}

	log.Warn().
		Str("user", AdminUsername).
		Str("password", password).
		Msg("created the initial admin account, change the password with 'upmail user password'")

	return nil
}
