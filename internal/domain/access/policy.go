// Package access decides whether a request path may be served for a session.
// Decisions are pure functions of the path, the session and the configured prefixes.
package access

import (
	"path"
	"strings"

	"academy/internal/domain/entity"
)

// Outcome is the verdict of a route guard decision.
type Outcome int

const (
	// Allow lets the request through.
	Allow Outcome = iota
	// Redirect sends the client to Decision.Target.
	Redirect
)

// Reason explains a redirect; it is only logged.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the result of Policy.Decide.
type Decision struct {
	Outcome Outcome
	Target  string
	Reason  Reason
}

// Class is the protection level of a path.
type Class int

const (
	ClassPublic Class = iota
	ClassAuthenticated
	ClassAdmin
)

// Default route configuration.
const (
	DefaultSignInPath = "/auth/sign-in"
	DefaultHomePath   = "/"
)

var (
	DefaultAuthenticatedPrefixes = []string{"/dashboard", "/student"}
	DefaultAdminPrefixes         = []string{"/admin"}
)

// Policy holds the protected prefixes and redirect targets.
type Policy struct {
	authenticated []string
	admin         []string
	signInPath    string
	homePath      string
}

// NewPolicy builds a policy. Empty arguments fall back to the defaults.
// Prefixes are cleaned so "/admin/" and "/admin" are the same rule.
func NewPolicy(authenticated, admin []string, signInPath, homePath string) *Policy {
	if len(authenticated) == 0 {
		authenticated = DefaultAuthenticatedPrefixes
	}
	if len(admin) == 0 {
		admin = DefaultAdminPrefixes
	}
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	if homePath == "" {
		homePath = DefaultHomePath
	}

	return &Policy{
		authenticated: cleanPrefixes(authenticated),
		admin:         cleanPrefixes(admin),
		signInPath:    signInPath,
		homePath:      homePath,
	}
}

// DefaultPolicy protects /dashboard and /student for any session and /admin for admins.
func DefaultPolicy() *Policy {
	return NewPolicy(nil, nil, "", "")
}

// SignInPath is where unauthenticated visitors are sent.
func (p *Policy) SignInPath() string {
	return p.signInPath
}

// HomePath is where authenticated but unauthorized visitors are sent.
func (p *Policy) HomePath() string {
	return p.homePath
}

// Classify returns the protection level of the path. A path matched by any
// admin prefix is admin-only, even when a longer authenticated prefix also matches.
func (p *Policy) Classify(requestPath string) Class {
	cleaned := CleanPath(requestPath)

	if longestMatch(cleaned, p.admin) >= 0 {
		return ClassAdmin
	}
	if longestMatch(cleaned, p.authenticated) >= 0 {
		return ClassAuthenticated
	}

	return ClassPublic
}

// Decide computes the guard verdict for the path. session is nil when the
// request carries no valid session.
func (p *Policy) Decide(requestPath string, session *entity.Session) Decision {
	class := p.Classify(requestPath)
	if class == ClassPublic {
		return Decision{Outcome: Allow}
	}

	if session == nil {
		return Decision{Outcome: Redirect, Target: p.signInPath, Reason: ReasonUnauthenticated}
	}

	if class == ClassAdmin && !RequireRole(session, entity.RoleAdmin) {
		return Decision{Outcome: Redirect, Target: p.homePath, Reason: ReasonForbidden}
	}

	return Decision{Outcome: Allow}
}

// RequireRole reports whether the session holds the role. Roles in sessions are
// canonical, so this is a plain comparison.
func RequireRole(session *entity.Session, role entity.Role) bool {
	return session != nil && session.Role == role
}

// CleanPath resolves dot segments and duplicate slashes and guarantees a leading slash.
func CleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return path.Clean(p)
}

// longestMatch returns the length of the longest prefix matching on a segment
// boundary, or -1. "/admin" matches "/admin" and "/admin/x" but not "/administrator".
func longestMatch(cleaned string, prefixes []string) int {
	best := -1
	for _, prefix := range prefixes {
		if !hasSegmentPrefix(cleaned, prefix) {
			continue
		}
		if len(prefix) > best {
			best = len(prefix)
		}
	}

	return best
}

func hasSegmentPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}

	return len(p) == len(prefix) || p[len(prefix)] == '/'
}

func cleanPrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if strings.TrimSpace(prefix) == "" {
			continue
		}
		out = append(out, CleanPath(strings.TrimSpace(prefix)))
	}

	return out
}
