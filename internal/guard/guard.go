// Package guard decides whether a route renders for the current visitor.
package guard

const (
	LoginRoute = "/auth"
	HomeRoute  = "/"
)

type Outcome int

const (
	Render Outcome = iota
	Redirect
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard holds the protected route set. It keeps no per-visitor state.
type Guard struct {
	protected map[string]struct{}
}

func New(protected ...string) *Guard {
	g := &Guard{protected: make(map[string]struct{}, len(protected))}
	for _, route := range protected {
		g.protected[route] = struct{}{}
	}
	return g
}

func (g *Guard) Protected(route string) bool {
	_, ok := g.protected[route]
	return ok
}

func (g *Guard) Decide(route string, signedIn bool) Decision {
	switch {
	case route == LoginRoute:
		if signedIn {
			return Decision{Outcome: Redirect, Location: HomeRoute}
		}
		return Decision{Outcome: Render}
	case g.Protected(route):
		if !signedIn {
			return Decision{Outcome: Redirect, Location: LoginRoute}
		}
		return Decision{Outcome: Render}
	default:
		return Decision{Outcome: NotFound}
	}
}
