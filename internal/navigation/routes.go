// Package navigation selects the mounted screen graph from the session state
// and tracks history inside it.
package navigation

// Route names a screen.
type Route string

const (
	RouteLogin      Route = "Login"
	RouteSignup     Route = "Signup"
	RouteDrawer     Route = "Drawer"
	RouteHome       Route = "Home"
	RouteProfile    Route = "Profile"
	RouteAddPost    Route = "AddPost"
	RouteViewPosts  Route = "ViewPosts"
	RouteBlogDetail Route = "BlogDetail"
)

// Root is the top-level navigation state.
type Root int

const (
	RootBooting Root = iota
	RootUnauthenticated
	RootAuthenticated
)

func (r Root) String() string {
	switch r {
	case RootBooting:
		return "booting"
	case RootUnauthenticated:
		return "unauthenticated"
	case RootAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Graph is the set of screens mounted under one root.
type Graph struct {
	Entry   Route   // first stack entry after mounting
	Screens []Route // stack screens
	Drawer  []Route // children of RouteDrawer; first one is the drawer's initial child
}

// Has reports whether r is a stack screen of g.
func (g Graph) Has(r Route) bool { return contains(g.Screens, r) }

// InDrawer reports whether r is a drawer child of g.
func (g Graph) InDrawer(r Route) bool { return contains(g.Drawer, r) }

// DrawerInitial is the child shown when the drawer is mounted.
func (g Graph) DrawerInitial() Route {
	if len(g.Drawer) == 0 {
		return ""
	}
	return g.Drawer[0]
}

// Table maps each steady-state root to its graph.
type Table struct {
	Unauthenticated Graph
	Authenticated   Graph
}

// DefaultTable is the blog client's route table. BlogDetail is reachable from
// both graphs.
func DefaultTable() Table {
	return Table{
		Unauthenticated: Graph{
			Entry:   RouteLogin,
			Screens: []Route{RouteLogin, RouteSignup, RouteBlogDetail},
		},
		Authenticated: Graph{
			Entry:   RouteDrawer,
			Screens: []Route{RouteDrawer, RouteBlogDetail},
			Drawer:  []Route{RouteHome, RouteProfile, RouteAddPost, RouteViewPosts},
		},
	}
}

func (t Table) graph(root Root) (Graph, bool) {
	switch root {
	case RootUnauthenticated:
		return t.Unauthenticated, true
	case RootAuthenticated:
		return t.Authenticated, true
	default:
		return Graph{}, false
	}
}

func contains(rs []Route, r Route) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
