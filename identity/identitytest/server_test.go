package identitytest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nestorzamili/samunu-project/identity"
)

func newProvider(t *testing.T, opts ...Option) (*Server, *identity.HTTPClient) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	provider := New(rdb, opts...)
	srv := httptest.NewServer(provider.Handler())
	t.Cleanup(srv.Close)

	client, err := identity.NewHTTPClient(identity.HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	return provider, client
}

func TestSignInHappyPath(t *testing.T) {
	provider, client := newProvider(t)

	userID, err := provider.Seed("Alice", "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}

	if resp.Err != nil {
		t.Fatalf("envelope error = %+v", resp.Err)
	}
	if resp.Data == nil || resp.Data.Token == "" {
		t.Fatalf("envelope data = %+v", resp.Data)
	}
	if resp.Data.User.ID != userID || !resp.Data.User.EmailVerified {
		t.Fatalf("user = %+v", resp.Data.User)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	provider, client := newProvider(t)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if resp.Err == nil || resp.Err.Code != "AuthInvalidCredentials" {
		t.Fatalf("envelope error = %+v", resp.Err)
	}
}

func TestSignInUnknownAccountSameCode(t *testing.T) {
	_, client := newProvider(t)

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if resp.Err == nil || resp.Err.Code != "AuthInvalidCredentials" {
		t.Fatalf("envelope error = %+v", resp.Err)
	}
}

func TestSignInBlockedAccount(t *testing.T) {
	provider, client := newProvider(t)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	provider.Block("alice@example.com")

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if resp.Err == nil || resp.Err.Code != "AuthUserBlocked" {
		t.Fatalf("envelope error = %+v", resp.Err)
	}
}

func TestSignUpThenSignInRequiresVerification(t *testing.T) {
	provider, client := newProvider(t)

	resp, err := client.SignUpEmail(context.Background(), identity.SignUpInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("SignUpEmail: %v", err)
	}
	if resp.Err != nil {
		t.Fatalf("envelope error = %+v", resp.Err)
	}
	if resp.Data.User.EmailVerified {
		t.Fatal("new accounts must start unverified")
	}

	signIn, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "bob@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail: %v", err)
	}
	if signIn.Err == nil || signIn.Err.Code != "AuthMissingEmailVerification" {
		t.Fatalf("envelope error = %+v", signIn.Err)
	}

	provider.Verify("bob@example.com")

	signIn, err = client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "bob@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("SignInEmail after verify: %v", err)
	}
	if signIn.Err != nil {
		t.Fatalf("envelope error after verify = %+v", signIn.Err)
	}
}

func TestSignUpRejections(t *testing.T) {
	provider, client := newProvider(t)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cases := []struct {
		name  string
		input identity.SignUpInput
		code  string
	}{
		{"bad email", identity.SignUpInput{Name: "X", Email: "nope", Password: "long-enough"}, "AuthInvalidEmail"},
		{"weak password", identity.SignUpInput{Name: "X", Email: "x@example.com", Password: "short"}, "AuthWeakPassword"},
		{"duplicate", identity.SignUpInput{Name: "X", Email: "ALICE@example.com", Password: "long-enough"}, "AuthUserAlreadyExists"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.SignUpEmail(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("SignUpEmail: %v", err)
			}
			if resp.Err == nil || resp.Err.Code != tc.code {
				t.Fatalf("envelope error = %+v, want code %s", resp.Err, tc.code)
			}
		})
	}
}

func TestGetSessionRoundTrip(t *testing.T) {
	provider, client := newProvider(t)
	userID, err := provider.Seed("Alice", "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil || resp.Err != nil {
		t.Fatalf("SignInEmail: %v %+v", err, resp)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+resp.Data.Token)

	sess, err := client.GetSession(context.Background(), headers)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("session = %+v", sess)
	}
	if sess.User.Email != "alice@example.com" {
		t.Fatalf("session user = %+v", sess.User)
	}
}

func TestGetSessionCookieToken(t *testing.T) {
	provider, client := newProvider(t)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil || resp.Err != nil {
		t.Fatalf("SignInEmail: %v %+v", err, resp)
	}

	headers := http.Header{}
	headers.Set("Cookie", SessionCookie+"="+resp.Data.Token)

	sess, err := client.GetSession(context.Background(), headers)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess == nil {
		t.Fatal("cookie token not accepted")
	}
}

func TestGetSessionAbsent(t *testing.T) {
	_, client := newProvider(t)

	sess, err := client.GetSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess != nil {
		t.Fatalf("session = %+v, want nil", sess)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer not-a-real-token")
	sess, err = client.GetSession(context.Background(), headers)
	if err != nil {
		t.Fatalf("GetSession with garbage token: %v", err)
	}
	if sess != nil {
		t.Fatalf("session = %+v, want nil", sess)
	}
}

func TestSessionExpiry(t *testing.T) {
	current := time.Now()
	provider, client := newProvider(t,
		WithSessionTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil || resp.Err != nil {
		t.Fatalf("SignInEmail: %v %+v", err, resp)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+resp.Data.Token)

	if sess, err := client.GetSession(context.Background(), headers); err != nil || sess == nil {
		t.Fatalf("fresh session missing: %v %+v", err, sess)
	}

	current = current.Add(2 * time.Hour)

	sess, err := client.GetSession(context.Background(), headers)
	if err != nil {
		t.Fatalf("GetSession after expiry: %v", err)
	}
	if sess != nil {
		t.Fatalf("expired session still answered: %+v", sess)
	}
}

func TestRevokeAll(t *testing.T) {
	provider, client := newProvider(t)
	if _, err := provider.Seed("Alice", "alice@example.com", "correct-password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	resp, err := client.SignInEmail(context.Background(), identity.SignInInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil || resp.Err != nil {
		t.Fatalf("SignInEmail: %v %+v", err, resp)
	}

	if err := provider.RevokeAll(context.Background()); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+resp.Data.Token)

	sess, err := client.GetSession(context.Background(), headers)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess != nil {
		t.Fatalf("revoked session still answered: %+v", sess)
	}
}
