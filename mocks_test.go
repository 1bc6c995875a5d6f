package memberauth_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	memberauth "github.com/clubware/go-memberauth"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testIdentity is a plain value implementation of memberauth.Identity
type testIdentity struct {
	id       string
	email    string
	fullName string
	role     string
	active   bool
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Email() string    { return i.email }
func (i testIdentity) FullName() string { return i.fullName }
func (i testIdentity) Role() string     { return i.role }
func (i testIdentity) Active() bool     { return i.active }

// MockProfileTracker mocks the login-tracking store slice
type MockProfileTracker struct {
	mock.Mock
}

func (m *MockProfileTracker) GetByEmail(ctx context.Context, email string) (*memberauth.Profile, error) {
	args := m.Called(ctx, email)
	if p, ok := args.Get(0).(*memberauth.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileTracker) TrackAttemptedLogin(ctx context.Context, profile *memberauth.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileTracker) TrackSuccessfulLogin(ctx context.Context, profile *memberauth.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockIdentityProvider mocks memberauth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (memberauth.Identity, error) {
	args := m.Called(ctx, email, password)
	if id, ok := args.Get(0).(memberauth.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByEmail(ctx context.Context, email string) (memberauth.Identity, error) {
	args := m.Called(ctx, email)
	if id, ok := args.Get(0).(memberauth.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthenticator mocks memberauth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*memberauth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if res, ok := args.Get(0).(*memberauth.LoginResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (memberauth.AuthClaims, error) {
	args := m.Called(token)
	if claims, ok := args.Get(0).(memberauth.AuthClaims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) IdentityFromClaims(ctx context.Context, claims memberauth.AuthClaims) (memberauth.Identity, error) {
	args := m.Called(ctx, claims)
	if id, ok := args.Get(0).(memberauth.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

// testConfig is a static memberauth.Config for tests
type testConfig struct{}

func (testConfig) GetSigningKey() string             { return string(testSigningKey) }
func (testConfig) GetSigningMethod() string          { return "HS256" }
func (testConfig) GetContextKey() string             { return "user" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 168 * time.Hour }
func (testConfig) GetResetTokenTTL() time.Duration   { return 30 * time.Minute }
func (testConfig) GetTokenLookup() string            { return "header:Authorization" }
func (testConfig) GetAuthScheme() string             { return "Bearer" }
func (testConfig) GetIssuer() string                 { return "memberauth-test" }
func (testConfig) GetAudience() []string             { return []string{"members"} }
func (testConfig) GetActivationURL() string          { return "https://club.example.com" }
func (testConfig) GetFrontendURL() string            { return "https://club.example.com" }

// fakeProfiles provides an overridable slice of the Profiles store. The
// embedded interface keeps it assignable; calling an unstubbed method panics.
type fakeProfiles struct {
	memberauth.Profiles

	getByID           func(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*memberauth.Profile, error)
	getByEmail        func(ctx context.Context, email string) (*memberauth.Profile, error)
	consumeActivation func(ctx context.Context, token string) (*memberauth.Profile, error)
	setPassword       func(ctx context.Context, id uuid.UUID, passwordHash string) error
	createTx          func(ctx context.Context, tx bun.IDB, record *memberauth.Profile, criteria ...repository.InsertCriteria) (*memberauth.Profile, error)
	update            func(ctx context.Context, record *memberauth.Profile, criteria ...repository.UpdateCriteria) (*memberauth.Profile, error)
	list              func(ctx context.Context, criteria ...repository.SelectCriteria) ([]*memberauth.Profile, int, error)
}

func (f *fakeProfiles) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*memberauth.Profile, int, error) {
	return f.list(ctx, criteria...)
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*memberauth.Profile, error) {
	return f.getByID(ctx, id, criteria...)
}

func (f *fakeProfiles) GetByEmail(ctx context.Context, email string) (*memberauth.Profile, error) {
	return f.getByEmail(ctx, email)
}

func (f *fakeProfiles) ConsumeActivation(ctx context.Context, token string) (*memberauth.Profile, error) {
	return f.consumeActivation(ctx, token)
}

func (f *fakeProfiles) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return f.setPassword(ctx, id, passwordHash)
}

func (f *fakeProfiles) CreateTx(ctx context.Context, tx bun.IDB, record *memberauth.Profile, criteria ...repository.InsertCriteria) (*memberauth.Profile, error) {
	return f.createTx(ctx, tx, record, criteria...)
}

func (f *fakeProfiles) Update(ctx context.Context, record *memberauth.Profile, criteria ...repository.UpdateCriteria) (*memberauth.Profile, error) {
	return f.update(ctx, record, criteria...)
}

// fakeResetTokens overrides the reset token store methods used in tests
type fakeResetTokens struct {
	memberauth.ResetTokens

	getByToken    func(ctx context.Context, token string) (*memberauth.ResetToken, error)
	deleteByToken func(ctx context.Context, token string) error
	create        func(ctx context.Context, record *memberauth.ResetToken, criteria ...repository.InsertCriteria) (*memberauth.ResetToken, error)
}

func (f *fakeResetTokens) GetByToken(ctx context.Context, token string) (*memberauth.ResetToken, error) {
	return f.getByToken(ctx, token)
}

func (f *fakeResetTokens) DeleteByToken(ctx context.Context, token string) error {
	return f.deleteByToken(ctx, token)
}

func (f *fakeResetTokens) Create(ctx context.Context, record *memberauth.ResetToken, criteria ...repository.InsertCriteria) (*memberauth.ResetToken, error) {
	return f.create(ctx, record, criteria...)
}

type fakeRepo struct {
	profiles    memberauth.Profiles
	resetTokens memberauth.ResetTokens
}

func (f *fakeRepo) Validate() error { return nil }

func (f *fakeRepo) MustValidate() {}

func (f *fakeRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return fn(ctx, tx)
}

func (f *fakeRepo) Profiles() memberauth.Profiles { return f.profiles }

func (f *fakeRepo) ResetTokens() memberauth.ResetTokens { return f.resetTokens }

// captureSink records activity events for assertions
type captureSink struct {
	mu     sync.Mutex
	events []memberauth.ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event memberauth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Events() []memberauth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]memberauth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *captureSink) Has(eventType memberauth.ActivityEventType) bool {
	for _, evt := range s.Events() {
		if evt.EventType == eventType {
			return true
		}
	}
	return false
}

// captureMailer records outgoing messages for assertions
type captureMailer struct {
	mu   sync.Mutex
	sent []capturedEmail
}

type capturedEmail struct {
	To      string
	Subject string
	Body    string
}

func (m *captureMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, capturedEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *captureMailer) Sent() []capturedEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]capturedEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
