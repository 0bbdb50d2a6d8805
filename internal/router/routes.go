// Package router maps view paths to routes and decides, per navigation,
// whether the current session may see them.
package router

import (
	"strings"
)

const (
	RootPath         = "/"
	LoginPath        = "/login"
	RegisterPath     = "/register"
	DashboardPath    = "/dashboard"
	TransactionsPath = "/transactions"
	AccountsPath     = "/accounts"
	ProjectsPath     = "/projects"
	AuthTestPath     = "/auth-test"
)

type Route struct {
	Path      string
	Name      string
	Title     string
	Protected bool
	// Redirect sends navigation elsewhere before any guard runs
	Redirect string
}

// IsGuestOnly reports whether the route only makes sense without a session.
func (r Route) IsGuestOnly() bool {
	return r.Path == LoginPath || r.Path == RegisterPath
}

var routes = []Route{
	{Path: RootPath, Redirect: DashboardPath},
	{Path: LoginPath, Name: "Login", Title: "Sign in"},
	{Path: RegisterPath, Name: "Register", Title: "Create an account"},
	{Path: DashboardPath, Name: "Dashboard", Title: "Dashboard", Protected: true},
	{Path: TransactionsPath, Name: "Transactions", Title: "Transactions", Protected: true},
	{Path: AccountsPath, Name: "Accounts", Title: "Accounts", Protected: true},
	{Path: ProjectsPath, Name: "Projects", Title: "Projects", Protected: true},
	{Path: AuthTestPath, Name: "AuthTest", Title: "Authentication diagnostics", Protected: true},
}

func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup finds the route for path. Query strings and a trailing slash
// are ignored.
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, route := range routes {
		if route.Path == path {
			return route, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if len(path) == 0 {
			path = RootPath
		}
	}
	return path
}
