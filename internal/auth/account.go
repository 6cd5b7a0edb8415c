package auth

import (
	"context"
	"slices"
)

// Account is the caller of a request as seen by permission checks.
type Account struct {
	UserID      string
	Permissions []string
}

// Anonymous returns an account without identity or permissions.
func Anonymous() *Account {
	return &Account{}
}

// AccountFromClaims builds an account from verified token claims.
func AccountFromClaims(claims *JWTClaims) *Account {
	return &Account{
		UserID:      claims.UserID,
		Permissions: slices.Clone(claims.Permissions),
	}
}

// ID returns the user id, empty for anonymous callers.
func (a *Account) ID() string {
	if a == nil {
		return ""
	}
	return a.UserID
}

func (a *Account) IsAuthenticated() bool {
	return a != nil && a.UserID != ""
}

// HasPermission reports whether the account was granted perm. Names are
// matched exactly.
func (a *Account) HasPermission(perm string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Permissions, perm)
}

type accountKey struct{}

// WithAccount stores the account on ctx.
func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

// AccountFromContext returns the account stored on ctx, or an anonymous one.
func AccountFromContext(ctx context.Context) *Account {
	if a, ok := ctx.Value(accountKey{}).(*Account); ok && a != nil {
		return a
	}
	return Anonymous()
}
