package storefrontapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/golang-jwt/jwt/v5"
)

// CredentialStore keeps the bearer token and signed-in user in a gateway
// under the userToken and userData keys.
type CredentialStore struct {
	gateway persist.Gateway
	now     func() time.Time
}

func NewCredentialStore(gateway persist.Gateway) *CredentialStore {
	return &CredentialStore{gateway: gateway, now: time.Now}
}

// Token returns the stored bearer token, or "" when none is usable. A
// JSON-quoted token is unquoted. A JWT whose exp has passed is removed.
func (s *CredentialStore) Token(ctx context.Context) (string, error) {
	raw, err := s.gateway.Get(ctx, persist.KeyUserToken)
	if errors.Is(err, persist.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read token")
	}

	token := strings.TrimSpace(raw)
	if strings.HasPrefix(token, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(token), &unquoted); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stored token is malformed")
		}
		token = unquoted
	}
	if token == "" {
		return "", nil
	}

	if s.expired(token) {
		if err := s.Clear(ctx); err != nil {
			return "", err
		}
		return "", nil
	}
	return token, nil
}

// expired reports whether token is a JWT with a past exp claim. Opaque
// tokens and tokens without exp never expire here; the backend decides.
func (s *CredentialStore) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

// User returns the stored user, or nil when nobody is signed in.
func (s *CredentialStore) User(ctx context.Context) (*User, error) {
	raw, err := s.gateway.Get(ctx, persist.KeyUserData)
	if errors.Is(err, persist.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read user data")
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stored user data is malformed")
	}
	return &user, nil
}

// Save stores a fresh login.
func (s *CredentialStore) Save(ctx context.Context, token string, user User) error {
	if err := s.gateway.Set(ctx, persist.KeyUserToken, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "store token")
	}
	return s.SaveUser(ctx, user)
}

func (s *CredentialStore) SaveUser(ctx context.Context, user User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user data")
	}
	if err := s.gateway.Set(ctx, persist.KeyUserData, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "store user data")
	}
	return nil
}

// Clear removes both the token and the user.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.gateway.Remove(ctx, persist.KeyUserToken); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "remove token")
	}
	if err := s.gateway.Remove(ctx, persist.KeyUserData); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "remove user data")
	}
	return nil
}
