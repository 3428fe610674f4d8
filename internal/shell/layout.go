package shell

// Preferences stores UI settings.
type Preferences interface {
	SidebarOpen() bool
	SetSidebarOpen(open bool) error
}

// Layout is the persistent frame around every protected view.
type Layout struct {
	prefs Preferences
}

func NewLayout(prefs Preferences) *Layout {
	return &Layout{prefs: prefs}
}

func (l *Layout) SidebarOpen() bool {
	return l.prefs.SidebarOpen()
}

// ToggleSidebar flips and persists the sidebar state, returning the new value.
func (l *Layout) ToggleSidebar() (bool, error) {
	open := !l.prefs.SidebarOpen()
	return open, l.prefs.SetSidebarOpen(open)
}

func (l *Layout) SetSidebar(open bool) error {
	return l.prefs.SetSidebarOpen(open)
}
