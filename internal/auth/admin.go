package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edgard/diary/internal/config"
	apperrors "github.com/edgard/diary/internal/errors"
)

// HashPassword returns the bcrypt hash stored in admin.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Admin verifies the admin password and the tokens it exchanges for.
type Admin struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	log          *slog.Logger
}

// NewAdmin creates an Admin from configuration. A zero AdminConfig yields a
// disabled Admin that rejects every login and every token.
func NewAdmin(cfg config.AdminConfig, log *slog.Logger) *Admin {
	if log == nil {
		log = slog.Default()
	}
	return &Admin{
		passwordHash: cfg.PasswordHash,
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		log:          log.With("component", "admin_auth"),
	}
}

// Enabled reports whether admin credentials are configured.
func (a *Admin) Enabled() bool {
	return a.passwordHash != "" && len(a.secret) > 0
}

// Login exchanges the admin password for a signed token.
func (a *Admin) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, apperrors.NewForbiddenError("admin access is not configured")
	}
	if !CheckPassword(a.passwordHash, password) {
		a.log.Warn("Rejected admin login")
		return "", time.Time{}, apperrors.NewUnauthorizedError("invalid admin password")
	}

	token, expiresAt, err := GenerateToken(RoleAdmin, RoleAdmin, a.secret, a.ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	a.log.Info("Issued admin token", "expires_at", expiresAt)
	return token, expiresAt, nil
}

// Authorize checks an Authorization header value of the form
// "Bearer <token>".
func (a *Admin) Authorize(header string) error {
	if !a.Enabled() {
		return apperrors.NewUnauthorizedError("admin access is not configured")
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return apperrors.NewUnauthorizedError("admin token required")
	}

	claims, err := ParseToken(strings.TrimSpace(token), a.secret)
	if err != nil {
		return apperrors.NewUnauthorizedError(err.Error())
	}
	if claims.Role != RoleAdmin {
		return apperrors.NewUnauthorizedError("admin role required")
	}
	return nil
}
