package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/authlane/auth-server/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	updateErr     error

	// getByIDFailAfter makes GetByID fail once it has been called this many
	// times; zero disables it.
	getByIDFailAfter int
	getByIDCalls     int

	// record calls
	updates []struct {
		id    string
		patch domain.UserPatch
	}
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getByIDCalls++
	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	if f.getByIDFailAfter > 0 && f.getByIDCalls > f.getByIDFailAfter {
		return domain.User{}, domain.ErrDBUnavailable(errors.New("gone"))
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, id string, patch domain.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	if patch.RefreshToken != nil {
		u.RefreshToken = *patch.RefreshToken
	}
	f.byID[id] = u
	f.updates = append(f.updates, struct {
		id    string
		patch domain.UserPatch
	}{id, patch})
	return nil
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) get(id string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeUserRepo) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

// fakeSigner mints opaque sequential tokens and remembers their claims.
type fakeSigner struct {
	mu     sync.Mutex
	n      int
	issued map[string]TokenClaims

	signErr error
	// failOnCall makes the n-th Sign call fail; zero disables it.
	failOnCall int
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{issued: map[string]TokenClaims{}}
}

func (s *fakeSigner) Sign(userID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	if s.signErr != nil || (s.failOnCall > 0 && s.n == s.failOnCall) {
		return "", errors.New("sign boom")
	}
	tok := fmt.Sprintf("jwt(%s,%s,%d)", userID, ttl, s.n)
	now := time.Now()
	s.issued[tok] = TokenClaims{UserID: userID, IssuedAt: now, Exp: now.Add(ttl)}
	return tok, nil
}

func (s *fakeSigner) Verify(token string) (TokenClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.issued[token]
	if !ok {
		return TokenClaims{}, domain.ErrTokenInvalid()
	}
	return c, nil
}

type fakePublisher struct {
	mu  sync.Mutex
	err error

	registered []UserRegisteredEvent
	loggedIn   []UserLoggedInEvent
	loggedOut  []UserLoggedOutEvent
}

func (p *fakePublisher) PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, evt)
	return p.err
}

func (p *fakePublisher) PublishUserLoggedIn(ctx context.Context, evt UserLoggedInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedIn = append(p.loggedIn, evt)
	return p.err
}

func (p *fakePublisher) PublishUserLoggedOut(ctx context.Context, evt UserLoggedOutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedOut = append(p.loggedOut, evt)
	return p.err
}

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	userID string
	email  string
	reason string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) add(e auditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *fakeAudit) Registered(_ context.Context, userID, email string) {
	a.add(auditEntry{action: "register", userID: userID, email: email})
}

func (a *fakeAudit) LoginSucceeded(_ context.Context, userID, email string) {
	a.add(auditEntry{action: "login_success", userID: userID, email: email})
}

func (a *fakeAudit) LoginFailed(_ context.Context, email, reason string) {
	a.add(auditEntry{action: "login_failed", email: email, reason: reason})
}

func (a *fakeAudit) LoggedOut(_ context.Context, userID string) {
	a.add(auditEntry{action: "logout", userID: userID})
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}

/*
Harness
*/

type testEnv struct {
	svc    *Service
	users  *fakeUserRepo
	hasher *fakeHasher
	signer *fakeSigner
	pub    *fakePublisher
	audit  *fakeAudit
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:  newFakeUserRepo(),
		hasher: &fakeHasher{},
		signer: newFakeSigner(),
		pub:    &fakePublisher{},
		audit:  &fakeAudit{},
	}
	env.svc = NewService(env.users, env.hasher, env.signer, env.pub, Config{}).WithAudit(env.audit)
	env.svc.now = func() time.Time { return fixedNow }

	n := 0
	env.svc.newID = func() string {
		n++
		return fmt.Sprintf("u%d", n)
	}
	return env
}

// seedUser stores a user whose password is pw.
func (e *testEnv) seedUser(id, username, email, pw string) domain.User {
	u := domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash:" + pw,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	e.users.put(u)
	return u
}

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code=%q, got nil", code)
	}
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}
