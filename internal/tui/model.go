// Package tui renders the blog client in a terminal with bubbletea.
//
// The model never blocks: backend calls run inside tea.Cmd goroutines, and
// navigation changes and notifications arrive through a Bridge.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/navigation"
	"github.com/and161185/blogbox/internal/observe"
	"github.com/and161185/blogbox/internal/screens"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Navigator is implemented by *navigation.Controller.
type Navigator interface {
	screens.Navigator
	View() navigation.View
	Subscribe(fn func(navigation.View)) *observe.Subscription
}

// Config wires the model.
type Config struct {
	Nav     Navigator
	Screens *screens.Set
	Bridge  *Bridge
	Log     *zap.Logger
	Timeout time.Duration   // per backend call, 10s when zero
	Boot    func()          // run in the background on Init, typically the session watcher's Start
	Context context.Context // parent of every backend call
}

type doneMsg struct{ err error }

type postsMsg struct {
	gen   uint64
	posts []model.Post
	err   error
}

// drawerItems is the side menu in display order.
var drawerItems = []navigation.Route{
	navigation.RouteHome,
	navigation.RouteProfile,
	navigation.RouteAddPost,
	navigation.RouteViewPosts,
}

var routeTitles = map[navigation.Route]string{
	navigation.RouteHome:      "Home",
	navigation.RouteProfile:   "Profile",
	navigation.RouteAddPost:   "Add Post",
	navigation.RouteViewPosts: "View Posts",
}

// Model is the bubbletea model.
type Model struct {
	cfg Config
	sub *observe.Subscription

	view   navigation.View
	screen navigation.Route

	spin spinner.Model
	busy bool

	login   form
	signup  form
	addPost form

	posts      []model.Post
	postCursor int
	menuCursor int

	alerts      []screens.Notification
	alertCursor int

	width int
}

// New builds the model and starts listening to the navigator.
func New(cfg Config) *Model {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Bridge == nil {
		cfg.Bridge = NewBridge()
	}
	m := &Model{cfg: cfg}
	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = selectedStyle
	m.resetForms()
	m.sub = cfg.Nav.Subscribe(func(navigation.View) { cfg.Bridge.Poke() })
	m.view = cfg.Nav.View()
	return m
}

func (m *Model) resetForms() {
	m.login = newForm(
		field{label: "Email", placeholder: "you@example.com", limit: 254},
		field{label: "Password", placeholder: "password", secret: true, limit: 128},
	)
	m.signup = newForm(
		field{label: "Email", placeholder: "you@example.com", limit: 254},
		field{label: "Password", placeholder: "at least 6 characters", secret: true, limit: 128},
		field{label: "Confirm Password", placeholder: "repeat password", secret: true, limit: 128},
	)
	m.addPost = newForm(
		field{label: "Title", placeholder: "Enter post title", limit: 200},
		field{label: "Description", placeholder: "Enter post description", limit: 2000},
		field{label: "Image URL", placeholder: "https://example.com/image.jpg", limit: 2048},
	)
	m.posts = nil
	m.postCursor = 0
	m.menuCursor = 0
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.cfg.Bridge.wait()}
	if m.cfg.Boot != nil {
		boot := m.cfg.Boot
		cmds = append(cmds, func() tea.Msg { boot(); return nil })
	}
	return tea.Batch(cmds...)
}

// Close stops listening to the navigator and releases the bridge.
func (m *Model) Close() {
	m.sub.Release()
	m.cfg.Bridge.Close()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case wakeMsg:
		return m, tea.Batch(m.sync(), m.cfg.Bridge.wait())

	case doneMsg:
		m.busy = false
		if msg.err != nil {
			m.cfg.Log.Debug("action failed", zap.Error(msg.err))
		}
		return m, nil

	case postsMsg:
		m.busy = false
		if msg.gen == m.view.Generation && msg.err == nil {
			m.posts = msg.posts
			if m.postCursor >= len(m.posts) {
				m.postCursor = 0
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.onKey(msg)
	}
	return m, nil
}

// sync re-reads navigation and pending notifications. It runs the entry hook
// of a newly shown screen.
func (m *Model) sync() tea.Cmd {
	v := m.cfg.Nav.View()
	if v.Generation != m.view.Generation {
		m.resetForms()
	}
	prev, prevGen := m.screen, m.view.Generation
	m.view = v
	m.screen = v.Screen()

	var cmd tea.Cmd
	if m.screen != prev || v.Generation != prevGen {
		cmd = m.enter(m.screen)
	}
	m.alerts = append(m.alerts, m.cfg.Bridge.drain()...)
	return cmd
}

func (m *Model) enter(r navigation.Route) tea.Cmd {
	switch r {
	case navigation.RouteAddPost:
		m.cfg.Screens.AddPost.Enter()
	case navigation.RouteViewPosts:
		return m.loadPosts()
	}
	return nil
}

func (m *Model) loadPosts() tea.Cmd {
	gen := m.view.Generation
	vp := m.cfg.Screens.ViewPosts
	return m.work(func(ctx context.Context) tea.Msg {
		ps, err := vp.Load(ctx)
		return postsMsg{gen: gen, posts: ps, err: err}
	})
}

// work runs fn off the event loop with the configured timeout.
func (m *Model) work(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	m.busy = true
	parent, timeout := m.cfg.Context, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) act(fn func(ctx context.Context) error) tea.Cmd {
	return m.work(func(ctx context.Context) tea.Msg { return doneMsg{err: fn(ctx)} })
}

func (m *Model) onKey(k tea.KeyMsg) tea.Cmd {
	if k.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if len(m.alerts) > 0 {
		m.onAlertKey(k)
		return nil
	}
	if m.busy || m.view.Root == navigation.RootBooting {
		return nil
	}
	if m.view.DrawerOpen {
		m.onMenuKey(k)
		return nil
	}
	if k.Type == tea.KeyCtrlO {
		m.toggleDrawer()
		return nil
	}

	switch m.screen {
	case navigation.RouteLogin:
		return m.onFormKey(&m.login, k, m.submitLogin, func() { m.cfg.Screens.Login.GoSignup() }, tea.KeyCtrlN)
	case navigation.RouteSignup:
		return m.onFormKey(&m.signup, k, m.submitSignup, func() { m.cfg.Screens.Signup.GoLogin() }, tea.KeyCtrlL)
	case navigation.RouteAddPost:
		return m.onFormKey(&m.addPost, k, m.submitPost, nil, 0)
	}

	switch k.String() {
	case "q":
		return tea.Quit
	case "esc", "backspace":
		m.cfg.Nav.GoBack()
		return nil
	case "m":
		m.toggleDrawer()
		return nil
	}

	switch m.screen {
	case navigation.RouteHome:
		switch k.String() {
		case "a", "1":
			m.cfg.Screens.Home.AddPost()
		case "v", "2":
			m.cfg.Screens.Home.ViewPosts()
		}
	case navigation.RouteProfile:
		if k.String() == "l" {
			return m.act(m.cfg.Screens.Profile.Logout)
		}
	case navigation.RouteViewPosts:
		switch k.String() {
		case "up", "k":
			if m.postCursor > 0 {
				m.postCursor--
			}
		case "down", "j":
			if m.postCursor < len(m.posts)-1 {
				m.postCursor++
			}
		case "enter":
			if m.postCursor < len(m.posts) {
				m.cfg.Screens.ViewPosts.Open(m.posts[m.postCursor])
			}
		case "r":
			return m.loadPosts()
		}
	}
	return nil
}

func (m *Model) toggleDrawer() {
	if err := m.cfg.Screens.Home.Menu(); err != nil {
		m.cfg.Log.Debug("drawer toggle ignored", zap.Error(err))
	}
}

func (m *Model) onFormKey(f *form, k tea.KeyMsg, submit func() tea.Cmd, alt func(), altKey tea.KeyType) tea.Cmd {
	switch k.Type {
	case tea.KeyTab, tea.KeyDown:
		return f.move(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return f.move(-1)
	case tea.KeyEnter:
		if f.onLast() {
			return submit()
		}
		return f.move(1)
	case tea.KeyEsc:
		m.cfg.Nav.GoBack()
		return nil
	}
	if alt != nil && k.Type == altKey {
		alt()
		return nil
	}
	return f.update(k)
}

func (m *Model) submitLogin() tea.Cmd {
	c := screens.Credentials{Email: m.login.value(0), Password: m.login.value(1)}
	s := m.cfg.Screens.Login
	return m.act(func(ctx context.Context) error { return s.Submit(ctx, c) })
}

func (m *Model) submitSignup() tea.Cmd {
	r := screens.Registration{
		Email:           m.signup.value(0),
		Password:        m.signup.value(1),
		ConfirmPassword: m.signup.value(2),
	}
	s := m.cfg.Screens.Signup
	return m.act(func(ctx context.Context) error { return s.Submit(ctx, r) })
}

func (m *Model) submitPost() tea.Cmd {
	p := screens.PostForm{
		Title:       m.addPost.value(0),
		Description: m.addPost.value(1),
		ImageURL:    m.addPost.value(2),
	}
	s := m.cfg.Screens.AddPost
	return m.act(func(ctx context.Context) error { return s.Submit(ctx, p) })
}

func (m *Model) onMenuKey(k tea.KeyMsg) {
	switch k.String() {
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(drawerItems)-1 {
			m.menuCursor++
		}
	case "enter":
		if err := m.cfg.Nav.Navigate(drawerItems[m.menuCursor], nil); err != nil {
			m.cfg.Log.Debug("menu navigation", zap.Error(err))
		}
	case "esc", "ctrl+o", "m":
		m.cfg.Nav.GoBack()
	}
}

func (m *Model) onAlertKey(k tea.KeyMsg) {
	a := m.alerts[0]
	switch k.String() {
	case "left", "shift+tab":
		if m.alertCursor > 0 {
			m.alertCursor--
		}
		return
	case "right", "tab":
		if m.alertCursor < len(a.Actions)-1 {
			m.alertCursor++
		}
		return
	case "enter", " ":
		if m.alertCursor < len(a.Actions) {
			act := a.Actions[m.alertCursor]
			if act.Reset {
				m.resetCurrentForm()
			}
			if act.Do != nil {
				act.Do()
			}
		}
	case "esc":
	default:
		return
	}
	m.alerts = m.alerts[1:]
	m.alertCursor = 0
}

func (m *Model) resetCurrentForm() {
	switch m.screen {
	case navigation.RouteLogin:
		m.login.clear()
	case navigation.RouteSignup:
		m.signup.clear()
	case navigation.RouteAddPost:
		m.addPost.clear()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.view.Root == navigation.RootBooting {
		return "\n  " + m.spin.View() + " Loading...\n"
	}

	var body string
	switch m.screen {
	case navigation.RouteLogin:
		body = m.viewLogin()
	case navigation.RouteSignup:
		body = m.viewSignup()
	case navigation.RouteHome:
		body = m.viewHome()
	case navigation.RouteProfile:
		body = m.viewProfile()
	case navigation.RouteAddPost:
		body = m.viewAddPost()
	case navigation.RouteViewPosts:
		body = m.viewPosts()
	case navigation.RouteBlogDetail:
		body = m.viewDetail()
	default:
		body = mutedStyle.Render(fmt.Sprintf("unknown screen %q", m.screen))
	}

	if m.view.DrawerOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewMenu(), body)
	}
	var b strings.Builder
	b.WriteString(body)
	if m.busy {
		b.WriteString("\n" + m.spin.View() + " Working...")
	}
	if len(m.alerts) > 0 {
		b.WriteString("\n" + m.viewAlert(m.alerts[0]))
	}
	return b.String()
}

func (m *Model) viewLogin() string {
	return titleStyle.Render("Welcome Back!") + "\n" +
		subtitleStyle.Render("Login to continue") + "\n\n" +
		m.login.view() +
		helpStyle.Render("enter: login • tab: next field • ctrl+n: Don't have an account? Sign up • ctrl+c: quit")
}

func (m *Model) viewSignup() string {
	return titleStyle.Render("Create Account") + "\n" +
		subtitleStyle.Render("Sign up to get started") + "\n\n" +
		m.signup.view() +
		helpStyle.Render("enter: sign up • tab: next field • ctrl+l: Already have an account? Login • esc: back")
}

func (m *Model) header(title string) string {
	return titleStyle.Render(title) + "  " + mutedStyle.Render("(m: menu)") + "\n\n"
}

func (m *Model) viewHome() string {
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(labelStyle.Render("Add Post")+"\n"+mutedStyle.Render("a: create a new post")),
		cardStyle.Render(labelStyle.Render("View Posts")+"\n"+mutedStyle.Render("v: browse all posts")),
	)
	return m.header("Welcome to Blog App") + cards +
		helpStyle.Render("a: add post • v: view posts • m: menu • q: quit")
}

func (m *Model) viewProfile() string {
	return m.header("Profile") +
		labelStyle.Render("Email:") + " " + m.cfg.Screens.Profile.Email() + "\n" +
		helpStyle.Render("l: logout • esc: back • m: menu")
}

func (m *Model) viewAddPost() string {
	return m.header("Create New Post") + m.addPost.view() +
		helpStyle.Render("enter: add post • tab: next field • ctrl+o: menu • esc: back")
}

func (m *Model) viewPosts() string {
	var b strings.Builder
	b.WriteString(m.header("All Posts"))
	if len(m.posts) == 0 && !m.busy {
		b.WriteString(mutedStyle.Render("No posts yet") + "\n")
	}
	width := 72
	if m.width > 8 && m.width-4 < width {
		width = m.width - 4
	}
	for i, p := range m.posts {
		title := p.Title
		if i == m.postCursor {
			title = selectedStyle.Render("> " + title)
		} else {
			title = "  " + title
		}
		b.WriteString(title + "\n")
		b.WriteString("  " + mutedStyle.Render(truncate(p.Description, width)) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓: select • enter: open • r: reload • m: menu"))
	return b.String()
}

func (m *Model) viewDetail() string {
	p, ok := m.cfg.Screens.BlogDetail.Post(m.view.Top())
	if !ok {
		return mutedStyle.Render("post unavailable") + helpStyle.Render("esc: back")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title) + "\n")
	if !p.CreatedAt.IsZero() {
		b.WriteString(mutedStyle.Render(p.CreatedAt.Local().Format("Jan 2, 2006 15:04")) + "\n")
	}
	if p.ImageURL != "" {
		b.WriteString(mutedStyle.Render(p.ImageURL) + "\n")
	}
	b.WriteString("\n" + p.Description + "\n")
	b.WriteString(helpStyle.Render("esc: back"))
	return b.String()
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	for i, r := range drawerItems {
		line := routeTitles[r]
		switch {
		case i == m.menuCursor:
			line = selectedStyle.Render("> " + line)
		case r == m.view.Drawer:
			line = labelStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return menuStyle.Render(b.String())
}

func (m *Model) viewAlert(n screens.Notification) string {
	title := errorStyle.Render(n.Title)
	if n.Level == screens.LevelSuccess {
		title = successStyle.Render(n.Title)
	}
	var buttons []string
	for i, a := range n.Actions {
		if i == m.alertCursor {
			buttons = append(buttons, selectedStyle.Render("[ "+a.Label+" ]"))
		} else {
			buttons = append(buttons, "  "+a.Label+"  ")
		}
	}
	if len(buttons) == 0 {
		buttons = append(buttons, selectedStyle.Render("[ OK ]"))
	}
	return alertStyle.Render(title + "\n" + n.Message + "\n\n" + strings.Join(buttons, " "))
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
