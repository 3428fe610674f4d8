// Package shell maps session state to reachable views.
package shell

import "strings"

// Access is who may open a route.
type Access int

const (
	// Public routes are open to everyone.
	Public Access = iota
	// GuestOnly routes bounce signed-in users to the dashboard.
	GuestOnly
	// Protected routes require a session.
	Protected
)

func (a Access) String() string {
	switch a {
	case GuestOnly:
		return "guest"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

// Route binds a path pattern to a view. Segments starting with ':' match
// any single segment.
type Route struct {
	Pattern string
	View    string
	Access  Access
}

// Well-known paths.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	NotFoundPath  = "/not-found"
)

// DefaultRoutes is the application's route table.
var DefaultRoutes = []Route{
	{Pattern: "/", View: "home", Access: Public},
	{Pattern: "/verify-email", View: "verify-email", Access: Public},
	{Pattern: "/reset-password", View: "reset-password", Access: Public},
	{Pattern: NotFoundPath, View: "not-found", Access: Public},

	{Pattern: LoginPath, View: "login", Access: GuestOnly},
	{Pattern: "/register", View: "register", Access: GuestOnly},
	{Pattern: "/forgot-password", View: "forgot-password", Access: GuestOnly},

	{Pattern: DashboardPath, View: "dashboard", Access: Protected},
	{Pattern: "/wallets", View: "wallets", Access: Protected},
	{Pattern: "/transactions", View: "transactions", Access: Protected},
	{Pattern: "/transactions/:id", View: "transaction", Access: Protected},
	{Pattern: "/banks", View: "banks", Access: Protected},
	{Pattern: "/top-up", View: "top-up", Access: Protected},
	{Pattern: "/paypal/success", View: "paypal-capture", Access: Protected},
	{Pattern: "/transfer", View: "transfer", Access: Protected},
	{Pattern: "/withdraw", View: "withdraw", Access: Protected},
	{Pattern: "/convert", View: "convert", Access: Protected},
	{Pattern: "/profile", View: "profile", Access: Protected},
}

// Match finds the route for path, ignoring any query string. Params holds
// the values of ':' segments.
func Match(routes []Route, path string) (Route, map[string]string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := split(path)

	for _, r := range routes {
		pat := split(r.Pattern)
		if len(pat) != len(segs) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, p := range pat {
			if strings.HasPrefix(p, ":") {
				params[p[1:]] = segs[i]
				continue
			}
			if p != segs[i] {
				ok = false
				break
			}
		}
		if ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
