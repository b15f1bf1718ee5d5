package navigation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/observe"
	"go.uber.org/zap"
)

var (
	// ErrBooting is returned for navigation requests before a root is mounted.
	ErrBooting = errors.New("navigation: still booting")
	// ErrRouteUnavailable is returned for routes outside the mounted graph.
	ErrRouteUnavailable = errors.New("navigation: route not mounted")
)

// Entry is one history item.
type Entry struct {
	Route  Route
	Params any
}

// View is an immutable snapshot handed to the renderer.
type View struct {
	Root       Root
	Stack      []Entry
	Drawer     Route // active drawer child, empty when no drawer is mounted
	DrawerOpen bool
	Generation uint64 // bumped on every root change; screen state from older generations is stale
}

// Top returns the last history entry.
func (v View) Top() Entry {
	if len(v.Stack) == 0 {
		return Entry{}
	}
	return v.Stack[len(v.Stack)-1]
}

// Screen resolves the visible screen, looking through the drawer.
func (v View) Screen() Route {
	top := v.Top()
	if top.Route == RouteDrawer {
		return v.Drawer
	}
	return top.Route
}

// StateSource is what the controller observes (implemented by session.Watcher).
type StateSource interface {
	State() model.SessionState
	Subscribe(onChange func(model.SessionState)) *observe.Subscription
}

// Controller mounts one of two graphs depending on the session and keeps
// history within it. Listeners must not call back into mutating methods.
type Controller struct {
	table Table
	log   *zap.Logger

	pubMu sync.Mutex // orders mutation+publish pairs

	mu         sync.Mutex
	root       Root
	stack      []Entry
	drawer     Route
	drawerOpen bool
	gen        uint64

	hub *observe.Hub[View]
}

// NewController starts in RootBooting.
func NewController(table Table, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{table: table, log: log, hub: observe.NewHub[View]()}
}

// Attach follows src: it applies the current state and every later change.
// The snapshot is dropped when a change was delivered while it was read.
func (c *Controller) Attach(src StateSource) *observe.Subscription {
	var (
		mu        sync.Mutex
		delivered bool
	)
	sub := src.Subscribe(func(s model.SessionState) {
		mu.Lock()
		defer mu.Unlock()
		delivered = true
		c.OnSession(s)
	})
	snap := src.State()
	mu.Lock()
	if !delivered {
		c.OnSession(snap)
	}
	mu.Unlock()
	return sub
}

// OnSession applies a SessionState. Until initialized the controller stays
// in RootBooting whatever the identity is.
func (c *Controller) OnSession(s model.SessionState) {
	if !s.Initialized {
		return
	}
	next := RootUnauthenticated
	if s.Authenticated() {
		next = RootAuthenticated
	}
	c.update(func() (bool, error) {
		if c.root == next {
			return false, nil
		}
		c.log.Info("navigation root changed", zap.Stringer("from", c.root), zap.Stringer("to", next))
		c.mount(next)
		return true, nil
	})
}

// mount resets history to the entry of root's graph. Callers hold mu.
func (c *Controller) mount(root Root) {
	g, _ := c.table.graph(root)
	c.root = root
	c.stack = []Entry{{Route: g.Entry}}
	c.drawer = g.DrawerInitial()
	c.drawerOpen = false
	c.gen++
}

// Navigate moves to r. Drawer children switch the drawer; stack screens
// already in history are returned to, others are pushed.
func (c *Controller) Navigate(r Route, params any) error {
	return c.update(func() (bool, error) {
		g, err := c.mounted()
		if err != nil {
			return false, err
		}
		switch {
		case g.InDrawer(r):
			i := c.indexOf(RouteDrawer)
			if i < 0 {
				return false, fmt.Errorf("%w: %s", ErrRouteUnavailable, r)
			}
			c.stack = c.stack[:i+1]
			c.drawer = r
			c.drawerOpen = false
		case g.Has(r):
			if i := c.indexOf(r); i >= 0 {
				c.stack = c.stack[:i+1]
				if params != nil {
					c.stack[i].Params = params
				}
			} else {
				c.stack = append(c.stack, Entry{Route: r, Params: params})
			}
			c.drawerOpen = false
		default:
			return false, fmt.Errorf("%w: %s", ErrRouteUnavailable, r)
		}
		return true, nil
	})
}

// GoBack closes an open drawer, pops history, or returns a drawer to its
// initial child. It reports whether anything changed.
func (c *Controller) GoBack() bool {
	changed, _ := c.updateChanged(func() (bool, error) {
		g, err := c.mounted()
		if err != nil {
			return false, err
		}
		switch {
		case c.drawerOpen:
			c.drawerOpen = false
		case len(c.stack) > 1:
			c.stack = c.stack[:len(c.stack)-1]
		case c.stack[0].Route == RouteDrawer && c.drawer != g.DrawerInitial():
			c.drawer = g.DrawerInitial()
		default:
			return false, nil
		}
		return true, nil
	})
	return changed
}

// Reset discards history and makes r the only entry. A drawer child resets
// to the drawer showing that child.
func (c *Controller) Reset(r Route, params any) error {
	return c.update(func() (bool, error) {
		g, err := c.mounted()
		if err != nil {
			return false, err
		}
		switch {
		case g.InDrawer(r):
			c.stack = []Entry{{Route: RouteDrawer}}
			c.drawer = r
		case g.Has(r):
			c.stack = []Entry{{Route: r, Params: params}}
			if r == RouteDrawer {
				c.drawer = g.DrawerInitial()
			}
		default:
			return false, fmt.Errorf("%w: %s", ErrRouteUnavailable, r)
		}
		c.drawerOpen = false
		return true, nil
	})
}

// ToggleDrawer opens or closes the side menu when the drawer is on top.
func (c *Controller) ToggleDrawer() error {
	return c.update(func() (bool, error) {
		if _, err := c.mounted(); err != nil {
			return false, err
		}
		if c.stack[len(c.stack)-1].Route != RouteDrawer {
			return false, fmt.Errorf("%w: %s", ErrRouteUnavailable, RouteDrawer)
		}
		c.drawerOpen = !c.drawerOpen
		return true, nil
	})
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe registers fn for every state change.
func (c *Controller) Subscribe(fn func(View)) *observe.Subscription {
	return c.hub.Subscribe(fn)
}

func (c *Controller) update(fn func() (bool, error)) error {
	_, err := c.updateChanged(fn)
	return err
}

func (c *Controller) updateChanged(fn func() (bool, error)) (bool, error) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	changed, err := fn()
	v := c.viewLocked()
	c.mu.Unlock()

	if changed && err == nil {
		c.hub.Publish(v)
	}
	return changed, err
}

func (c *Controller) mounted() (Graph, error) {
	g, ok := c.table.graph(c.root)
	if !ok {
		return Graph{}, ErrBooting
	}
	return g, nil
}

func (c *Controller) indexOf(r Route) int {
	for i, e := range c.stack {
		if e.Route == r {
			return i
		}
	}
	return -1
}

func (c *Controller) viewLocked() View {
	stack := make([]Entry, len(c.stack))
	copy(stack, c.stack)
	return View{
		Root:       c.root,
		Stack:      stack,
		Drawer:     c.drawer,
		DrawerOpen: c.drawerOpen,
		Generation: c.gen,
	}
}
