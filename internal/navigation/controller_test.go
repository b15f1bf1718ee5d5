package navigation

import (
	"errors"
	"testing"

	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/observe"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
)

var someone = &model.Identity{ID: uuid.Must(uuid.NewV4()), Email: "a@example.com"}

func signedIn() model.SessionState  { return model.SessionState{Identity: someone, Initialized: true} }
func signedOut() model.SessionState { return model.SessionState{Initialized: true} }

func newController(t *testing.T) *Controller {
	t.Helper()
	return NewController(DefaultTable(), zaptest.NewLogger(t))
}

func TestController_BootingIgnoresIdentityUntilInitialized(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(model.SessionState{Identity: someone})
	c.OnSession(model.SessionState{})
	if v := c.View(); v.Root != RootBooting || len(v.Stack) != 0 {
		t.Fatalf("want placeholder while booting, got %+v", v)
	}
	if err := c.Navigate(RouteHome, nil); !errors.Is(err, ErrBooting) {
		t.Fatalf("navigate while booting: %v", err)
	}
	if c.GoBack() {
		t.Fatalf("go back while booting must be a no-op")
	}
}

func TestController_TransitionTable(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(signedOut())
	if v := c.View(); v.Root != RootUnauthenticated || v.Screen() != RouteLogin {
		t.Fatalf("booting -> unauth: %+v", v)
	}

	c.OnSession(signedIn())
	v := c.View()
	if v.Root != RootAuthenticated || v.Screen() != RouteHome || len(v.Stack) != 1 {
		t.Fatalf("unauth -> auth: %+v", v)
	}

	c.OnSession(signedOut())
	if v := c.View(); v.Root != RootUnauthenticated || len(v.Stack) != 1 || v.Screen() != RouteLogin {
		t.Fatalf("auth -> unauth: %+v", v)
	}

	c2 := newController(t)
	c2.OnSession(signedIn())
	if v := c2.View(); v.Root != RootAuthenticated {
		t.Fatalf("booting -> auth: %+v", v)
	}
}

func TestController_LoginResetsHistory(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(signedOut())
	if err := c.Navigate(RouteSignup, nil); err != nil {
		t.Fatalf("navigate signup: %v", err)
	}
	if err := c.Navigate(RouteBlogDetail, "post"); err != nil {
		t.Fatalf("navigate detail: %v", err)
	}
	if n := len(c.View().Stack); n != 3 {
		t.Fatalf("stack len %d", n)
	}

	c.OnSession(signedIn())
	v := c.View()
	if len(v.Stack) != 1 || v.Stack[0].Route != RouteDrawer {
		t.Fatalf("history must be reset on login: %+v", v.Stack)
	}
	if c.GoBack() {
		t.Fatalf("nothing must be reachable by going back after login")
	}
	if err := c.Navigate(RouteLogin, nil); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("login screen must not be mounted after login: %v", err)
	}

	if err := c.Reset(RouteDrawer, nil); err != nil {
		t.Fatalf("reset to drawer: %v", err)
	}
	if v := c.View(); len(v.Stack) != 1 || v.Screen() != RouteHome {
		t.Fatalf("reset: %+v", v)
	}
}

func TestController_LogoutDiscardsScreenState(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(signedIn())
	gen := c.View().Generation
	_ = c.Navigate(RouteViewPosts, nil)
	_ = c.Navigate(RouteBlogDetail, "p1")

	c.OnSession(signedOut())
	v := c.View()
	if v.Generation == gen {
		t.Fatalf("generation must change on root change")
	}
	if v.Drawer != "" || v.DrawerOpen || len(v.Stack) != 1 {
		t.Fatalf("authenticated state leaked: %+v", v)
	}
}

func TestController_SameRootIsNoop(t *testing.T) {
	t.Parallel()

	c := newController(t)
	var views []View
	c.Subscribe(func(v View) { views = append(views, v) })

	c.OnSession(signedIn())
	_ = c.Navigate(RouteProfile, nil)
	c.OnSession(signedIn())
	if c.View().Screen() != RouteProfile {
		t.Fatalf("repeated identity must not remount")
	}
	if len(views) != 2 {
		t.Fatalf("want 2 published views, got %d", len(views))
	}
}

func TestController_DrawerNavigationAndBack(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(signedIn())

	if err := c.ToggleDrawer(); err != nil || !c.View().DrawerOpen {
		t.Fatalf("toggle open: %v", err)
	}
	if !c.GoBack() || c.View().DrawerOpen {
		t.Fatalf("back must close the drawer first")
	}

	_ = c.Navigate(RouteViewPosts, nil)
	_ = c.Navigate(RouteBlogDetail, "p1")
	if v := c.View(); v.Screen() != RouteBlogDetail || v.Top().Params != "p1" {
		t.Fatalf("detail: %+v", v)
	}
	if err := c.ToggleDrawer(); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("drawer toggle over detail: %v", err)
	}

	if !c.GoBack() || c.View().Screen() != RouteViewPosts {
		t.Fatalf("back from detail: %+v", c.View())
	}
	if !c.GoBack() || c.View().Screen() != RouteHome {
		t.Fatalf("back from drawer child returns to home: %+v", c.View())
	}
	if c.GoBack() {
		t.Fatalf("nothing left to go back to")
	}

	_ = c.Navigate(RouteBlogDetail, "p2")
	if err := c.Navigate(RouteAddPost, nil); err != nil {
		t.Fatalf("drawer child from detail: %v", err)
	}
	if v := c.View(); len(v.Stack) != 1 || v.Screen() != RouteAddPost {
		t.Fatalf("navigating to a drawer child must pop to the drawer: %+v", v)
	}
}

func TestController_NavigateReturnsToExisting(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.OnSession(signedOut())
	_ = c.Navigate(RouteSignup, nil)
	if err := c.Navigate(RouteLogin, nil); err != nil {
		t.Fatalf("navigate login: %v", err)
	}
	if v := c.View(); len(v.Stack) != 1 || v.Screen() != RouteLogin {
		t.Fatalf("want pop back to login: %+v", v)
	}
	if err := c.Navigate(RouteHome, nil); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("drawer child while signed out: %v", err)
	}
	if err := c.Reset(RouteProfile, nil); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("reset to unmounted route: %v", err)
	}
}

type fakeState struct {
	st     model.SessionState
	hub    *observe.Hub[model.SessionState]
	onRead func()
}

func (f *fakeState) State() model.SessionState {
	st := f.st
	if f.onRead != nil {
		f.onRead()
	}
	return st
}
func (f *fakeState) Subscribe(fn func(model.SessionState)) *observe.Subscription {
	return f.hub.Subscribe(fn)
}

func TestController_Attach(t *testing.T) {
	t.Parallel()

	src := &fakeState{st: signedOut(), hub: observe.NewHub[model.SessionState]()}
	c := newController(t)
	sub := c.Attach(src)
	if c.View().Root != RootUnauthenticated {
		t.Fatalf("attach must apply current state")
	}
	src.hub.Publish(signedIn())
	if c.View().Root != RootAuthenticated {
		t.Fatalf("attach must follow changes")
	}
	sub.Release()
	src.hub.Publish(signedOut())
	if c.View().Root != RootAuthenticated {
		t.Fatalf("released attachment still delivered")
	}
}

func TestController_AttachDropsSnapshotOlderThanDelivery(t *testing.T) {
	t.Parallel()

	src := &fakeState{st: signedOut(), hub: observe.NewHub[model.SessionState]()}
	src.onRead = func() {
		src.st = signedIn()
		src.hub.Publish(signedIn())
	}
	c := newController(t)
	sub := c.Attach(src)
	defer sub.Release()

	v := c.View()
	if v.Root != RootAuthenticated || v.Generation != 1 {
		t.Fatalf("stale snapshot applied over a newer change: %+v", v)
	}
}
