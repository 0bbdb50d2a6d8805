package router

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Authenticator is the view of the session store the guard needs.
type Authenticator interface {
	IsAuthenticated() bool
	HasUser() bool
	ValidateToken(ctx context.Context) bool
}

type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirectTo(path string) Decision {
	return Decision{Redirect: path}
}

type Guard struct {
	auth Authenticator
}

func NewGuard(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// Check decides whether navigation to route may proceed. A token without
// a loaded user is validated against the server before deciding.
func (g *Guard) Check(ctx context.Context, route Route) Decision {

	if route.Protected {
		if !g.auth.IsAuthenticated() {
			logrus.WithFields(logrus.Fields{
				"route": route.Path,
			}).Debugln("No session, redirecting to login")
			return redirectTo(LoginPath)
		}

		if !g.auth.HasUser() && !g.auth.ValidateToken(ctx) {
			logrus.WithFields(logrus.Fields{
				"route": route.Path,
			}).Debugln("Session did not validate, redirecting to login")
			return redirectTo(LoginPath)
		}

		return allow()
	}

	if route.IsGuestOnly() && g.auth.IsAuthenticated() {
		return redirectTo(DashboardPath)
	}

	return allow()
}
