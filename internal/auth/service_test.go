package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/curconv/auth-service/internal/model"
)

// fakeStore is an in-memory Store with the same conditional-revoke
// semantics as the MySQL implementation: a revoke only succeeds while
// the stored row is still unrevoked.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*model.User         // by id
	roles     map[string]*model.Role         // by name
	userRoles map[string]map[string]bool     // user id -> role id set
	tokens    map[string]*model.RefreshToken // by token value
}

func newFakeStore(seedRoles bool) *fakeStore {
	s := &fakeStore{
		users:     make(map[string]*model.User),
		roles:     make(map[string]*model.Role),
		userRoles: make(map[string]map[string]bool),
		tokens:    make(map[string]*model.RefreshToken),
	}
	if seedRoles {
		for _, r := range []*model.Role{
			model.NewRole(model.RoleAdmin, "admin"),
			model.NewRole(model.RoleUser, "user"),
		} {
			s.roles[r.Name] = r
		}
	}
	return s
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func copyToken(t *model.RefreshToken) *model.RefreshToken {
	c := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	if t.RevokedByIp != nil {
		ip := *t.RevokedByIp
		c.RevokedByIp = &ip
	}
	if t.ReplacedByToken != nil {
		rb := *t.ReplacedByToken
		c.ReplacedByToken = &rb
	}
	return &c
}

func (s *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *fakeStore) UserByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UserByEmail(_ context.Context, email string) (*UserWithRoles, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &UserWithRoles{User: copyUser(u), Roles: s.roleNamesLocked(u.ID)}, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (s *fakeStore) SetUserActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (s *fakeStore) RoleByName(_ context.Context, name string) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *fakeStore) AssignRole(_ context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = make(map[string]bool)
	}
	s.userRoles[userID][roleID] = true
	return nil
}

func (s *fakeStore) CreateRefreshToken(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[t.Token]; exists {
		return ErrDuplicate
	}
	s.tokens[t.Token] = copyToken(t)
	return nil
}

func (s *fakeStore) RefreshTokenByValue(_ context.Context, value string) (*model.RefreshToken, *UserWithRoles, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[value]
	if !ok {
		return nil, nil, ErrNotFound
	}
	u, ok := s.users[t.UserID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return copyToken(t), &UserWithRoles{User: copyUser(u), Roles: s.roleNamesLocked(u.ID)}, nil
}

func (s *fakeStore) RotateRefreshToken(_ context.Context, old, replacement *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[old.Token]
	if !ok {
		return ErrNotFound
	}
	if stored.RevokedAt != nil {
		return ErrTokenNotActive
	}
	stored.RevokedAt = old.RevokedAt
	stored.RevokedByIp = old.RevokedByIp
	stored.ReplacedByToken = old.ReplacedByToken
	s.tokens[replacement.Token] = copyToken(replacement)
	return nil
}

func (s *fakeStore) RevokeRefreshToken(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[t.Token]
	if !ok {
		return ErrNotFound
	}
	if stored.RevokedAt != nil {
		return ErrTokenNotActive
	}
	stored.RevokedAt = t.RevokedAt
	stored.RevokedByIp = t.RevokedByIp
	stored.ReplacedByToken = t.ReplacedByToken
	return nil
}

func (s *fakeStore) ActiveRefreshTokensForUser(_ context.Context, userID string, now time.Time) ([]*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil && t.ExpiresAt.After(now) {
			out = append(out, copyToken(t))
		}
	}
	return out, nil
}

func (s *fakeStore) roleNamesLocked(userID string) []string {
	var names []string
	for roleID := range s.userRoles[userID] {
		for _, r := range s.roles {
			if r.ID == roleID {
				names = append(names, r.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// tokenRow returns the stored row for a token value.
func (s *fakeStore) tokenRow(value string) *model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[value]
	if !ok {
		return nil
	}
	return copyToken(t)
}

type testEnv struct {
	store *fakeStore
	svc   *Service
	now   time.Time
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func newTestEnv(t *testing.T, seedRoles bool) *testEnv {
	t.Helper()
	env := &testEnv{
		store: newFakeStore(seedRoles),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	nowFn := func() time.Time { return env.now }

	signer, err := NewTokenSigner("test-secret", "auth-service", "auth-service", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	signer.now = nowFn

	refresh := NewRefreshManager(env.store, signer, 7*24*time.Hour)
	refresh.now = nowFn

	env.svc = NewService(env.store, signer, refresh)
	env.svc.now = nowFn
	return env
}

func register(t *testing.T, env *testEnv) *Session {
	t.Helper()
	s, err := env.svc.Register(context.Background(), RegisterInput{
		Email: "a@x.com", Username: "alice", Password: "pw123",
		FirstName: "A", LastName: "Lice",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return s
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, true)
	s := register(t, env)

	if s.Email != "a@x.com" || s.Username != "alice" || s.UserID == "" {
		t.Fatalf("unexpected session identity: %+v", s)
	}
	if len(s.Roles) != 1 || s.Roles[0] != model.RoleUser {
		t.Fatalf("new user must hold exactly the User role, got %v", s.Roles)
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("registration must return a token pair")
	}
	if env.store.tokenRow(s.RefreshToken) == nil {
		t.Fatalf("refresh token must be persisted")
	}
}

func TestRegister_Duplicates(t *testing.T) {
	env := newTestEnv(t, true)
	register(t, env)

	// Same email, different username.
	_, err := env.svc.Register(context.Background(), RegisterInput{
		Email: "a@x.com", Username: "bob", Password: "pw",
	}, "")
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicateUser", err)
	}

	// Same username, different email.
	_, err = env.svc.Register(context.Background(), RegisterInput{
		Email: "b@x.com", Username: "alice", Password: "pw",
	}, "")
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate username: got %v, want ErrDuplicateUser", err)
	}
}

func TestRegister_MissingRoleCatalog(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.svc.Register(context.Background(), RegisterInput{
		Email: "a@x.com", Username: "alice", Password: "pw123",
	}, "")
	if !errors.Is(err, ErrRoleNotConfigured) {
		t.Fatalf("got %v, want ErrRoleNotConfigured", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	env := newTestEnv(t, true)
	if _, err := env.svc.Register(context.Background(), RegisterInput{
		Username: "alice", Password: "pw123",
	}, ""); !errors.Is(err, model.ErrEmptyEmail) {
		t.Fatalf("got %v, want ErrEmptyEmail", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	if _, err := env.svc.Login(context.Background(), "nobody@x.com", "pw123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.svc.Login(context.Background(), "a@x.com", "wrongpw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	env.advance(time.Minute)
	s, err := env.svc.Login(context.Background(), "a@x.com", "pw123", "10.0.0.9")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.UserID != reg.UserID {
		t.Fatalf("login must resolve the registered user")
	}
	if len(s.Roles) != 1 || s.Roles[0] != model.RoleUser {
		t.Fatalf("login must return the registered role set, got %v", s.Roles)
	}
	if s.RefreshToken == reg.RefreshToken {
		t.Fatalf("login must issue a fresh refresh token")
	}

	stored, err := env.store.UserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if stored.User.LastLoginAt == nil || !stored.User.LastLoginAt.Equal(env.now) {
		t.Fatalf("login must persist last_login_at")
	}
}

func TestLogin_DeactivatedUser(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	if err := env.svc.SetUserActive(context.Background(), reg.UserID, false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if _, err := env.svc.Login(context.Background(), "a@x.com", "pw123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("deactivated login: got %v, want ErrInvalidCredentials", err)
	}

	if err := env.svc.SetUserActive(context.Background(), reg.UserID, true); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if _, err := env.svc.Login(context.Background(), "a@x.com", "pw123", ""); err != nil {
		t.Fatalf("reactivated login: %v", err)
	}

	if err := env.svc.SetUserActive(context.Background(), "no-such-user", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	s2, err := env.svc.Refresh(context.Background(), reg.RefreshToken, "10.0.0.2")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s2.RefreshToken == reg.RefreshToken {
		t.Fatalf("rotation must produce a new token value")
	}
	if s2.UserID != reg.UserID || len(s2.Roles) != 1 || s2.Roles[0] != model.RoleUser {
		t.Fatalf("rotation must keep the user and role set: %+v", s2)
	}

	// The old row is revoked and linked forward to its successor.
	old := env.store.tokenRow(reg.RefreshToken)
	if old == nil || old.RevokedAt == nil {
		t.Fatalf("rotated token must be revoked")
	}
	if old.ReplacedByToken == nil || *old.ReplacedByToken != s2.RefreshToken {
		t.Fatalf("rotated token must record its successor")
	}

	// Replaying the rotated token fails; the successor still works.
	if _, err := env.svc.Refresh(context.Background(), reg.RefreshToken, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("replay: got %v, want ErrInvalidOrExpiredToken", err)
	}
	if _, err := env.svc.Refresh(context.Background(), s2.RefreshToken, ""); err != nil {
		t.Fatalf("successor rotation: %v", err)
	}
}

func TestRefresh_UnknownAndEmptyToken(t *testing.T) {
	env := newTestEnv(t, true)
	register(t, env)

	if _, err := env.svc.Refresh(context.Background(), "no-such-token", ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("unknown token: got %v, want ErrInvalidOrExpiredToken", err)
	}
	if _, err := env.svc.Refresh(context.Background(), "", ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("empty token: got %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestRefresh_ExpiryBoundary(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	// Exactly at expires_at the token is no longer active.
	env.advance(7 * 24 * time.Hour)
	if _, err := env.svc.Refresh(context.Background(), reg.RefreshToken, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidOrExpiredToken", err)
	}
	// And it was not revoked by the failed attempt; expiry is a derived
	// state, not a stored transition.
	if row := env.store.tokenRow(reg.RefreshToken); row.RevokedAt != nil {
		t.Fatalf("expired token must not be marked revoked")
	}
}

func TestRefresh_LostRace(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	// A concurrent caller revokes the row between lookup and revoke. The
	// fake's conditional revoke then reports the lost race exactly like
	// the SQL rows-affected check does.
	row := env.store.tokenRow(reg.RefreshToken)
	if err := row.Revoke(env.now, "10.0.0.3", ""); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := env.store.RevokeRefreshToken(context.Background(), row); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}

	if _, err := env.svc.Refresh(context.Background(), reg.RefreshToken, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("got %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestLogout_RevokesAllAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t, true)
	reg := register(t, env)

	// Second session for the same user.
	login, err := env.svc.Login(context.Background(), "a@x.com", "pw123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := env.svc.Logout(context.Background(), reg.UserID, "10.0.0.4"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, tok := range []string{reg.RefreshToken, login.RefreshToken} {
		if row := env.store.tokenRow(tok); row.RevokedAt == nil {
			t.Fatalf("logout must revoke every active token")
		}
		if _, err := env.svc.Refresh(context.Background(), tok, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("refresh after logout: got %v, want ErrInvalidOrExpiredToken", err)
		}
	}

	firstRevokedAt := *env.store.tokenRow(reg.RefreshToken).RevokedAt

	// Running logout again finds nothing active and succeeds without
	// touching the already revoked rows.
	env.advance(time.Minute)
	if err := env.svc.Logout(context.Background(), reg.UserID, ""); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if got := *env.store.tokenRow(reg.RefreshToken).RevokedAt; !got.Equal(firstRevokedAt) {
		t.Fatalf("second logout must not re-revoke tokens")
	}

	// Logout for a user with no tokens at all is a no-op too.
	if err := env.svc.Logout(context.Background(), "no-such-user", ""); err != nil {
		t.Fatalf("logout with nothing to revoke: %v", err)
	}
}

// Full walk through the credential lifecycle.
func TestAuthLifecycle(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	reg := register(t, env)
	if len(reg.Roles) != 1 || reg.Roles[0] != model.RoleUser {
		t.Fatalf("register roles: %v", reg.Roles)
	}

	if _, err := env.svc.Login(ctx, "a@x.com", "wrongpw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}

	login, err := env.svc.Login(ctx, "a@x.com", "pw123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := env.svc.Refresh(ctx, login.RefreshToken, "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, login.RefreshToken, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("old token after rotation: got %v", err)
	}

	if err := env.svc.Logout(ctx, reg.UserID, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, refreshed.RefreshToken, ""); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("newest token after logout: got %v", err)
	}
}
