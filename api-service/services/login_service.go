package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
	utils "classtrack-backend/shared/utils/auth"
)

var (
	// ErrValidation - email or password missing from the request
	ErrValidation = errors.New("email and password required")
	// ErrInvalidCredentials - unknown email or wrong password, reported
	// identically to avoid account enumeration
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Telemetry columns probed on the users table
var telemetryColumns = []string{"last_login_at", "login_count", "failed_login_attempts"}

// AccountStore is the user-account storage collaborator.
type AccountStore interface {
	// FindActiveByEmail returns the non-deleted account for a normalized
	// email, or (nil, nil) when there is none.
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateTelemetry sets last_login_at, increments login_count and resets
	// failed_login_attempts in one transactional round-trip, returning the
	// post-update row.
	UpdateTelemetry(ctx context.Context, id uuid.UUID, now time.Time) (*models.User, error)
	// IncrementFailedAttempts bumps failed_login_attempts by one.
	IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error
	// TelemetryColumns returns which of the probed telemetry columns exist
	// on the users table.
	TelemetryColumns(ctx context.Context) (map[string]bool, error)
}

// AuditTrail appends audit entries. Callers treat it as best-effort.
type AuditTrail interface {
	Append(ctx context.Context, actorID *uuid.UUID, action, entity, entityID string, changes models.JSONMap) error
}

// GroupDirectory resolves a user's group memberships.
type GroupDirectory interface {
	ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]GroupInfo, error)
}

// TokenIssuer signs session tokens binding an account id and role.
type TokenIssuer interface {
	Sign(userID uuid.UUID, role string) (string, error)
}

// GroupInfo is the group shape embedded in login and user payloads.
type GroupInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Role  string    `json:"role"`
}

// Profile is the normalized account payload returned on login. The
// telemetry fields are nil when the schema does not carry them.
type Profile struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Phone               *string     `json:"phone"`
	Type                string      `json:"type"`
	StudentID           *uuid.UUID  `json:"studentId"`
	LastLoginAt         *time.Time  `json:"lastLoginAt"`
	LoginCount          *int        `json:"loginCount"`
	FailedLoginAttempts *int        `json:"failedLoginAttempts"`
	Groups              []GroupInfo `json:"groups"`
}

// LoginResult is the success payload of a login attempt.
type LoginResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// LoginService authenticates credentials, maintains login telemetry when
// the schema supports it, writes audit entries and issues session tokens.
type LoginService struct {
	accounts AccountStore
	audit    AuditTrail
	groups   GroupDirectory
	tokens   TokenIssuer
	gate     *TelemetryGate
}

// NewLoginService wires a LoginService from its collaborators.
func NewLoginService(accounts AccountStore, trail AuditTrail, groups GroupDirectory, tokens TokenIssuer) *LoginService {
	return &LoginService{
		accounts: accounts,
		audit:    trail,
		groups:   groups,
		tokens:   tokens,
		gate:     NewTelemetryGate(),
	}
}

// Gate exposes the capability gate (tests and diagnostics).
func (s *LoginService) Gate() *TelemetryGate {
	return s.gate
}

// Login authenticates email/password and returns a signed token plus the
// account profile. Outcomes are exactly: success, ErrValidation,
// ErrInvalidCredentials, or an internal error.
func (s *LoginService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrValidation
	}
	normalized := utils.NormalizeEmail(email)

	capability := s.gate.Resolve(func() (bool, error) {
		return s.probeTelemetry(ctx)
	})

	if capability == CapabilitySupported {
		result, err := s.loginWithTelemetry(ctx, normalized, password, clientIP)
		if err != nil && IsUndefinedColumn(err) {
			// The cached capability was wrong: the schema lost its telemetry
			// columns. Downgrade and retry the whole attempt the legacy way
			// instead of failing the request.
			log.Printf("Warning: missing telemetry columns detected, downgrading to legacy login flow")
			s.gate.Downgrade()
			return s.loginLegacy(ctx, normalized, password, clientIP)
		}
		return result, err
	}

	return s.loginLegacy(ctx, normalized, password, clientIP)
}

// probeTelemetry checks the account schema for all three telemetry columns.
func (s *LoginService) probeTelemetry(ctx context.Context) (bool, error) {
	present, err := s.accounts.TelemetryColumns(ctx)
	if err != nil {
		return false, err
	}
	for _, column := range telemetryColumns {
		if !present[column] {
			return false, nil
		}
	}
	return true, nil
}

// loginWithTelemetry is the credential check plus counter maintenance.
// Undefined-column errors bubble up untouched so Login can downgrade.
func (s *LoginService) loginWithTelemetry(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	user, err := s.accounts.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		// Two independent best-effort side writes; neither changes the 401.
		if err := s.accounts.IncrementFailedAttempts(ctx, user.ID); err != nil {
			if IsUndefinedColumn(err) {
				return nil, err
			}
			log.Printf("Warning: could not record failed login attempt for %s: %v", user.ID, err)
		}
		s.appendAudit(ctx, &user.ID, audit.ActionLoginFailed, user.ID.String(), nil)
		return nil, ErrInvalidCredentials
	}

	updated, err := s.accounts.UpdateTelemetry(ctx, user.ID, time.Now().UTC())
	if err != nil {
		// Re-fetch failure is fatal: the response promises post-update state.
		return nil, fmt.Errorf("finalize login: %w", err)
	}

	s.appendAudit(ctx, &updated.ID, audit.ActionLogin, updated.ID.String(), models.JSONMap{"ip": clientIP})

	return s.buildResult(ctx, updated, true)
}

// loginLegacy mirrors the telemetry path minus any counter reads/writes.
func (s *LoginService) loginLegacy(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	user, err := s.accounts.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		s.appendAudit(ctx, &user.ID, audit.ActionLoginFailed, user.ID.String(), nil)
		return nil, ErrInvalidCredentials
	}

	s.appendAudit(ctx, &user.ID, audit.ActionLogin, user.ID.String(), models.JSONMap{"ip": clientIP})

	return s.buildResult(ctx, user, false)
}

// buildResult resolves groups, signs the token and shapes the profile.
func (s *LoginService) buildResult(ctx context.Context, user *models.User, telemetry bool) (*LoginResult, error) {
	token, err := s.tokens.Sign(user.ID, user.Type)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	profile := Profile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Type:      user.Type,
		StudentID: user.StudentID,
		Groups:    s.resolveGroups(ctx, user.ID),
	}
	if telemetry {
		profile.LastLoginAt = user.LastLoginAt
		loginCount := user.LoginCount
		failed := user.FailedLoginAttempts
		profile.LoginCount = &loginCount
		profile.FailedLoginAttempts = &failed
	}

	return &LoginResult{Token: token, User: profile}, nil
}

// resolveGroups returns the user's groups, or an empty list with a warning
// when resolution fails. Group failures never fail a login.
func (s *LoginService) resolveGroups(ctx context.Context, userID uuid.UUID) []GroupInfo {
	groups, err := s.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to resolve groups for user %s: %v", userID, err)
		return []GroupInfo{}
	}
	if groups == nil {
		groups = []GroupInfo{}
	}
	return groups
}

// appendAudit writes an audit entry, logging and discarding failures. A
// broken audit sink must never block a login outcome.
func (s *LoginService) appendAudit(ctx context.Context, actorID *uuid.UUID, action, entityID string, changes models.JSONMap) {
	if err := s.audit.Append(ctx, actorID, action, "User", entityID, changes); err != nil {
		log.Printf("Warning: could not append %s audit entry for %s: %v", action, entityID, err)
	}
}
