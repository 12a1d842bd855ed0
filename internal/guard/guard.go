// ABOUTME: Route guard deciding whether a screen may be activated
// ABOUTME: Anonymous sessions are confined to the public screens

package guard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nagypet/wstemplate/internal/session"
)

// PublicPath is the fallback destination for denied navigation.
const PublicPath = "/public"

// allowedForAnonym lists the path prefixes an anonymous session may visit.
var allowedForAnonym = []string{"/public", "/login"}

// Decision is the outcome of a guard check. A denied navigation carries
// the path to redirect to instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// SessionChecker is the session surface the guard needs. Implemented by
// the session manager.
type SessionChecker interface {
	CheckToken(ctx context.Context, candidate *session.AuthorizationToken) (*session.AuthorizationToken, error)
}

// Guard gates navigation on the session state.
type Guard struct {
	sessions SessionChecker
	logger   *zap.Logger
}

// New creates a route guard.
func New(sessions SessionChecker, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{sessions: sessions, logger: logger}
}

// CanActivate decides whether the session may navigate to the given path.
// Any failure to establish the session denies the navigation.
func (g *Guard) CanActivate(ctx context.Context, path string) Decision {
	deny := Decision{Allowed: false, RedirectTo: PublicPath}

	token, err := g.sessions.CheckToken(ctx, nil)
	if err != nil {
		g.logger.Warn("guard check failed", zap.String("path", path), zap.Error(err))
		return deny
	}
	if token == nil {
		g.logger.Debug("navigation denied, no session", zap.String("path", path))
		return deny
	}

	if token.IsAnonymous() && !anonymAllowed(path) {
		g.logger.Debug("navigation denied for anonymous session", zap.String("path", path))
		return deny
	}

	return Decision{Allowed: true}
}

func anonymAllowed(path string) bool {
	for _, prefix := range allowedForAnonym {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
