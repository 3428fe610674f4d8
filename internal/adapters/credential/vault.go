// Package credential keeps the bearer credential in one of two storage scopes.
package credential

import "errors"

// Keys used in the storage scopes.
const (
	TokenKey   = "token"
	SidebarKey = "sidebar_open"
)

// Vault owns the bearer credential across the durable and ephemeral scopes.
// At most one scope holds the credential after Save.
type Vault struct {
	durable   Store
	ephemeral Store
}

// NewVault binds the two scopes.
func NewVault(durable, ephemeral Store) *Vault {
	return &Vault{durable: durable, ephemeral: ephemeral}
}

// Token returns the active credential. The durable scope wins if both hold one.
func (v *Vault) Token() (string, bool) {
	if t, ok := v.durable.Get(TokenKey); ok && t != "" {
		return t, true
	}
	if t, ok := v.ephemeral.Get(TokenKey); ok && t != "" {
		return t, true
	}
	return "", false
}

// Save stores token in the durable scope when remember is set, otherwise in
// the ephemeral scope, and removes it from the other scope.
func (v *Vault) Save(token string, remember bool) error {
	target, other := v.ephemeral, v.durable
	if remember {
		target, other = v.durable, v.ephemeral
	}
	if err := other.Delete(TokenKey); err != nil {
		return err
	}
	return target.Set(TokenKey, token)
}

// Clear removes the credential from both scopes unconditionally.
func (v *Vault) Clear() error {
	return errors.Join(v.durable.Delete(TokenKey), v.ephemeral.Delete(TokenKey))
}

// Durable exposes the durable scope for UI preferences.
func (v *Vault) Durable() Store {
	return v.durable
}
