package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
)

// fakeAccountStore is an in-memory AccountStore with switchable telemetry
// column support and injectable write errors.
type fakeAccountStore struct {
	users map[string]*models.User

	columns    map[string]bool
	columnsErr error

	updateErr    error
	incrementErr error

	lookups    int
	updates    int
	increments int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		users: map[string]*models.User{},
		columns: map[string]bool{
			"last_login_at":         true,
			"login_count":           true,
			"failed_login_attempts": true,
		},
	}
}

func (f *fakeAccountStore) addUser(email, password string, failedAttempts int) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := &models.User{
		ID:                  uuid.New(),
		Name:                "Test User",
		Email:               email,
		Password:            string(hash),
		Type:                models.UserTypeStudent,
		LoginCount:          2,
		FailedLoginAttempts: failedAttempts,
	}
	f.users[email] = user
	return user
}

func (f *fakeAccountStore) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	f.lookups++
	user, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeAccountStore) UpdateTelemetry(ctx context.Context, id uuid.UUID, now time.Time) (*models.User, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, user := range f.users {
		if user.ID == id {
			user.LastLoginAt = &now
			user.LoginCount++
			user.FailedLoginAttempts = 0
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAccountStore) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error {
	f.increments++
	if f.incrementErr != nil {
		return f.incrementErr
	}
	for _, user := range f.users {
		if user.ID == id {
			user.FailedLoginAttempts++
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeAccountStore) TelemetryColumns(ctx context.Context) (map[string]bool, error) {
	if f.columnsErr != nil {
		return nil, f.columnsErr
	}
	return f.columns, nil
}

type auditEntry struct {
	actorID  *uuid.UUID
	action   string
	entity   string
	entityID string
	changes  models.JSONMap
}

type fakeAuditTrail struct {
	entries []auditEntry
	err     error
}

func (f *fakeAuditTrail) Append(ctx context.Context, actorID *uuid.UUID, action, entity, entityID string, changes models.JSONMap) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, auditEntry{actorID, action, entity, entityID, changes})
	return nil
}

func (f *fakeAuditTrail) actions() []string {
	actions := make([]string, len(f.entries))
	for i, entry := range f.entries {
		actions[i] = entry.action
	}
	return actions
}

type fakeGroupDirectory struct {
	groups []GroupInfo
	err    error
}

func (f *fakeGroupDirectory) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]GroupInfo, error) {
	return f.groups, f.err
}

type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Sign(userID uuid.UUID, role string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID.String(), nil
}

func newTestService(store *fakeAccountStore, trail *fakeAuditTrail) *LoginService {
	return NewLoginService(store, trail, &fakeGroupDirectory{}, &fakeTokenIssuer{})
}

func undefinedColumnErr() error {
	return &pgconn.PgError{Code: "42703", Message: `column "login_count" does not exist`}
}

func TestLoginSuccessUpdatesTelemetry(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 3)
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice@example.com", result.User.Email)
	require.NotNil(t, result.User.LoginCount)
	assert.Equal(t, 3, *result.User.LoginCount)
	require.NotNil(t, result.User.FailedLoginAttempts)
	assert.Equal(t, 0, *result.User.FailedLoginAttempts, "success resets the failure counter")
	assert.NotNil(t, result.User.LastLoginAt)

	require.Len(t, trail.entries, 1)
	assert.Equal(t, audit.ActionLogin, trail.entries[0].action)
	assert.Equal(t, models.JSONMap{"ip": "10.0.0.1"}, trail.entries[0].changes)
	assert.Equal(t, CapabilitySupported, service.Gate().State())
}

func TestLoginNormalizesEmail(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	service := newTestService(store, &fakeAuditTrail{})

	result, err := service.Login(context.Background(), "  Alice@Example.COM ", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.User.Email)
}

func TestLoginWrongPasswordIncrementsCounter(t *testing.T) {
	store := newFakeAccountStore()
	user := store.addUser("alice@example.com", "password123", 2)
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	result, err := service.Login(context.Background(), "alice@example.com", "nope", "10.0.0.1")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, 3, store.users["alice@example.com"].FailedLoginAttempts)
	require.Len(t, trail.entries, 1)
	assert.Equal(t, audit.ActionLoginFailed, trail.entries[0].action)
	assert.Equal(t, user.ID.String(), trail.entries[0].entityID)
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	_, wrongPassword := service.Login(context.Background(), "alice@example.com", "nope", "")
	_, unknownEmail := service.Login(context.Background(), "nobody@example.com", "whatever", "")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	// No account was resolved for the unknown email, so only the wrong
	// password attempt left an audit entry.
	assert.Equal(t, []string{audit.ActionLoginFailed}, trail.actions())
}

func TestLoginMissingFieldsShortCircuit(t *testing.T) {
	store := newFakeAccountStore()
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	for _, attempt := range [][2]string{
		{"", "password"},
		{"alice@example.com", ""},
		{"   ", "password"},
		{"", ""},
	} {
		_, err := service.Login(context.Background(), attempt[0], attempt[1], "")
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.Zero(t, store.lookups, "validation failures must not touch storage")
	assert.Empty(t, trail.entries)
	assert.Equal(t, CapabilityUnknown, service.Gate().State())
}

func TestLoginLegacySchemaOmitsTelemetry(t *testing.T) {
	store := newFakeAccountStore()
	store.columns = map[string]bool{}
	store.addUser("alice@example.com", "password123", 4)
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "10.0.0.1")
	require.NoError(t, err)

	assert.Nil(t, result.User.LastLoginAt)
	assert.Nil(t, result.User.LoginCount)
	assert.Nil(t, result.User.FailedLoginAttempts)
	assert.Zero(t, store.updates, "legacy path must not write counters")

	require.Len(t, trail.entries, 1)
	assert.Equal(t, audit.ActionLogin, trail.entries[0].action)
	assert.Equal(t, CapabilityUnsupported, service.Gate().State())
}

func TestLoginPartialSchemaCountsAsLegacy(t *testing.T) {
	store := newFakeAccountStore()
	store.columns = map[string]bool{"last_login_at": true, "login_count": true}
	store.addUser("alice@example.com", "password123", 0)
	service := newTestService(store, &fakeAuditTrail{})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Nil(t, result.User.LoginCount)
	assert.Equal(t, CapabilityUnsupported, service.Gate().State())
}

func TestLoginProbeFailureFallsBackToLegacy(t *testing.T) {
	store := newFakeAccountStore()
	store.columnsErr = errors.New("information_schema unavailable")
	store.addUser("alice@example.com", "password123", 0)
	service := newTestService(store, &fakeAuditTrail{})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Nil(t, result.User.LoginCount)
	assert.Equal(t, CapabilityUnsupported, service.Gate().State())
}

func TestLoginDowngradesOnMissingColumnDuringFinalize(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	store.updateErr = undefinedColumnErr()
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	// Schema drift after the probe: the write fails with undefined_column,
	// the attempt reruns on the legacy path and still succeeds.
	result, err := service.Login(context.Background(), "alice@example.com", "password123", "10.0.0.1")
	require.NoError(t, err)

	assert.Nil(t, result.User.LoginCount)
	assert.Equal(t, CapabilityUnsupported, service.Gate().State())
	assert.Equal(t, 2, store.lookups, "legacy rerun repeats the lookup")

	// Only the legacy rerun recorded the successful login.
	assert.Equal(t, []string{audit.ActionLogin}, trail.actions())

	// The downgrade is sticky for subsequent attempts.
	store.updateErr = nil
	result, err = service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Nil(t, result.User.LoginCount)
}

func TestLoginDowngradesOnMissingColumnDuringFailedAttempt(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	store.incrementErr = undefinedColumnErr()
	trail := &fakeAuditTrail{}
	service := newTestService(store, trail)

	_, err := service.Login(context.Background(), "alice@example.com", "nope", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, CapabilityUnsupported, service.Gate().State())

	// Exactly one failed-login entry despite the internal rerun.
	assert.Equal(t, []string{audit.ActionLoginFailed}, trail.actions())
}

func TestLoginOtherUpdateErrorsAreInternal(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	store.updateErr = errors.New("connection reset")
	service := newTestService(store, &fakeAuditTrail{})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, CapabilitySupported, service.Gate().State(), "generic failures must not downgrade")
}

func TestLoginAuditFailureDoesNotBlockLogin(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	trail := &fakeAuditTrail{err: errors.New("audit sink down")}
	service := newTestService(store, trail)

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLoginGroupResolutionFailureDegradesToEmpty(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	directory := &fakeGroupDirectory{err: errors.New("join failed")}
	service := NewLoginService(store, &fakeAuditTrail{}, directory, &fakeTokenIssuer{})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, []GroupInfo{}, result.User.Groups)
}

func TestLoginGroupsIncludedInProfile(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	groups := []GroupInfo{{ID: uuid.New(), Name: "Morning Class", Color: "#2563eb", Role: "Member"}}
	service := NewLoginService(store, &fakeAuditTrail{}, &fakeGroupDirectory{groups: groups}, &fakeTokenIssuer{})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, groups, result.User.Groups)
}

func TestLoginTokenSigningFailureIsInternal(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	service := NewLoginService(store, &fakeAuditTrail{}, &fakeGroupDirectory{}, &fakeTokenIssuer{err: errors.New("no key")})

	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginProbeRunsOncePerProcess(t *testing.T) {
	store := newFakeAccountStore()
	store.addUser("alice@example.com", "password123", 0)
	service := newTestService(store, &fakeAuditTrail{})

	for i := 0; i < 3; i++ {
		_, err := service.Login(context.Background(), "alice@example.com", "password123", "")
		require.NoError(t, err)
	}

	// Breaking the probe after resolution must not matter.
	store.columnsErr = errors.New("probe broken")
	result, err := service.Login(context.Background(), "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.NotNil(t, result.User.LoginCount)
}
