package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/authlane/auth-server/internal/domain"
)

func TestRegister_MissingFields_ReturnsMissingField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"username", RegisterInput{Email: "a@b.com", Password: "pw"}, "username"},
		{"email", RegisterInput{Username: "ann", Password: "pw"}, "email"},
		{"blank email", RegisterInput{Username: "ann", Email: "   ", Password: "pw"}, "email"},
		{"password", RegisterInput{Username: "ann", Email: "a@b.com"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t)

			_, err := env.svc.Register(context.Background(), tc.in)
			requireErrCode(t, err, "missing_field")

			var de *domain.Error
			if !errors.As(err, &de) || de.Meta["field"] != tc.field {
				t.Fatalf("expected meta field=%q, got %+v", tc.field, de)
			}
			if len(env.users.byID) != 0 {
				t.Fatalf("expected no user stored")
			}
		})
	}
}

func TestRegister_EmailWithoutAt_InvalidField(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "ann.example.com", Password: "pw"})
	requireErrCode(t, err, "invalid_field")
}

func TestRegister_Success_ReturnsSanitizedUser(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	u, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "Ann@Example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if u.ID != "u1" || u.Username != "ann" || u.Email != "ann@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash != "" || u.RefreshToken != "" {
		t.Fatalf("expected sanitized user, got %+v", u)
	}
	if !u.CreatedAt.Equal(fixedNow) || !u.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("expected timestamps set, got %v / %v", u.CreatedAt, u.UpdatedAt)
	}

	stored := env.users.get("u1")
	if stored.PasswordHash != "hash:pw" {
		t.Fatalf("expected hashed password stored, got %q", stored.PasswordHash)
	}
	if stored.RefreshToken != "" {
		t.Fatalf("expected no refresh token at registration")
	}
	if len(env.pub.registered) != 1 || env.pub.registered[0].UserID != "u1" {
		t.Fatalf("expected one registered event, got %+v", env.pub.registered)
	}
	if got := env.audit.actions(); len(got) != 1 || got[0] != "register" {
		t.Fatalf("unexpected audit entries %v", got)
	}
}

func TestRegister_DuplicateEmail_CaseInsensitive_Conflict(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.seedUser("existing", "bob", "bob@example.com", "pw")

	_, err := env.svc.Register(context.Background(), RegisterInput{Username: "bob2", Email: "BOB@example.com", Password: "other"})
	requireErrCode(t, err, "email_already_exists")

	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict kind, got %v", domain.KindOf(err))
	}
	if len(env.users.byID) != 1 {
		t.Fatalf("expected store unchanged")
	}
}

func TestRegister_LookupFailure_Propagates(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.users.getByEmailErr = domain.ErrDBUnavailable(errors.New("down"))

	_, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.com", Password: "pw"})
	requireErrCode(t, err, "db_unavailable")
}

func TestRegister_HashFail_ReturnsHashFailed(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.hasher.hashFn = func(string) (string, error) { return "", errors.New("boom") }

	_, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.com", Password: "pw"})
	requireErrCode(t, err, "hash_failed")
}

func TestRegister_CreateConflict_Propagates(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.users.createErr = domain.ErrEmailAlreadyExists()

	_, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.com", Password: "pw"})
	requireErrCode(t, err, "email_already_exists")
}

func TestRegister_PublishFailure_IsIgnored(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.pub.err = errors.New("broker down")

	if _, err := env.svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
}

func TestRegister_NilPublisher_OK(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeUserRepo(), &fakeHasher{}, newFakeSigner(), nil, Config{})
	if _, err := svc.Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
