// Package identitytest provides an in-process identity provider
// implementing the three-operation surface the gate consumes: email
// sign-in, email sign-up, and session lookup. It exists so the gate can
// be exercised end to end without the real provider.
//
// Accounts are held in memory with argon2id password hashes; sessions
// live in Redis under a TTL and are referenced by signed session tokens
// delivered as a cookie. Tests typically back it with miniredis.
package identitytest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nestorzamili/samunu-project/identity"
)

// SessionCookie is the cookie name carrying the session token.
const SessionCookie = "samunu.session_token"

const (
	sessionKeyPrefix  = "idsess:"
	defaultSessionTTL = 7 * 24 * time.Hour
	minPasswordLength = 8
)

var errSessionNotFound = errors.New("identitytest: session not found")

type userRecord struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	EmailVerified bool
	Blocked       bool
}

// Server is the in-process provider. Safe for concurrent use.
type Server struct {
	rdb        redis.UniversalClient
	signingKey []byte
	sessionTTL time.Duration
	now        func() time.Time

	mu    sync.Mutex
	users map[string]*userRecord // keyed by lowercased email
}

// Option tweaks a [Server].
type Option func(*Server)

// WithSessionTTL overrides the 7-day default session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) { s.sessionTTL = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a provider storing sessions in the given Redis client.
func New(rdb redis.UniversalClient, opts ...Option) *Server {
	s := &Server{
		rdb:        rdb,
		signingKey: []byte(uuid.NewString()),
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
		users:      make(map[string]*userRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed registers a verified account and returns its user ID.
func (s *Server) Seed(name, email, password string) (string, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.users[strings.ToLower(email)] = &userRecord{
		ID:            id,
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: true,
	}
	s.mu.Unlock()

	return id, nil
}

// Verify marks the account's email as verified.
func (s *Server) Verify(email string) {
	s.mu.Lock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.EmailVerified = true
	}
	s.mu.Unlock()
}

// Block marks the account as blocked; sign-in answers AuthUserBlocked.
func (s *Server) Block(email string) {
	s.mu.Lock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.Blocked = true
	}
	s.mu.Unlock()
}

// Handler serves the provider's REST surface: POST /sign-in/email,
// POST /sign-up/email, GET /get-session.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sign-in/email", s.handleSignIn)
	mux.HandleFunc("POST /sign-up/email", s.handleSignUp)
	mux.HandleFunc("GET /get-session", s.handleGetSession)
	return mux
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in identity.SignInInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProviderError(w, http.StatusBadRequest, "", "malformed request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[strings.ToLower(in.Email)]
	var snapshot userRecord
	if ok {
		snapshot = *user
	}
	s.mu.Unlock()

	if !ok || !verifyPassword(in.Password, snapshot.PasswordHash) {
		writeProviderError(w, http.StatusUnauthorized, "AuthInvalidCredentials", "invalid email or password")
		return
	}
	if snapshot.Blocked {
		writeProviderError(w, http.StatusForbidden, "AuthUserBlocked", "account blocked")
		return
	}
	if !snapshot.EmailVerified {
		writeProviderError(w, http.StatusForbidden, "AuthMissingEmailVerification", "email not verified")
		return
	}

	token, err := s.createSession(r.Context(), snapshot)
	if err != nil {
		http.Error(w, "session storage unavailable", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.sessionTTL),
	})
	writeJSON(w, http.StatusOK, identity.AuthData{
		Token: token,
		User:  toIdentityUser(snapshot),
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in identity.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProviderError(w, http.StatusBadRequest, "", "malformed request body")
		return
	}

	if !strings.Contains(in.Email, "@") || !strings.Contains(in.Email, ".") {
		writeProviderError(w, http.StatusBadRequest, "AuthInvalidEmail", "invalid email address")
		return
	}
	if len(in.Password) < minPasswordLength {
		writeProviderError(w, http.StatusBadRequest, "AuthWeakPassword", "password too weak")
		return
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		http.Error(w, "hashing failed", http.StatusInternalServerError)
		return
	}

	key := strings.ToLower(in.Email)

	s.mu.Lock()
	if _, exists := s.users[key]; exists {
		s.mu.Unlock()
		writeProviderError(w, http.StatusConflict, "AuthUserAlreadyExists", "email already registered")
		return
	}
	user := &userRecord{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		// New accounts await email verification before sign-in.
		EmailVerified: false,
	}
	s.users[key] = user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, identity.AuthData{
		User: toIdentityUser(*user),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	sess, err := s.lookupSession(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) createSession(ctx context.Context, user userRecord) (string, error) {
	sessionID := uuid.NewString()
	now := s.now()

	sess := identity.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		User:      toIdentityUser(user),
	}

	blob, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sessionID, blob, s.sessionTTL).Err(); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *Server) lookupSession(ctx context.Context, token string) (*identity.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return nil, errSessionNotFound
	}

	blob, err := s.rdb.Get(ctx, sessionKeyPrefix+claims.ID).Bytes()
	if err != nil {
		return nil, errSessionNotFound
	}

	var sess identity.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, err
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.rdb.Del(ctx, sessionKeyPrefix+claims.ID).Err()
		return nil, errSessionNotFound
	}

	return &sess, nil
}

// RevokeAll deletes every stored session. Helper for tests simulating
// provider-side invalidation.
func (s *Server) RevokeAll(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func toIdentityUser(u userRecord) identity.User {
	return identity.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

func writeProviderError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(identity.Error{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		_, _ = w.Write([]byte("null"))
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
