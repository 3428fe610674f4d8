package credential

import "strconv"

// Preferences are UI settings persisted next to the credential.
type Preferences struct {
	store Store
}

// NewPreferences reads and writes preferences in store.
func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

// SidebarOpen defaults to true when never set.
func (p *Preferences) SidebarOpen() bool {
	v, ok := p.store.Get(SidebarKey)
	if !ok {
		return true
	}
	open, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return open
}

func (p *Preferences) SetSidebarOpen(open bool) error {
	return p.store.Set(SidebarKey, strconv.FormatBool(open))
}
