// Command blog is the terminal client of the blog service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/client"
	"github.com/and161185/blogbox/internal/client/authstore"
	"github.com/and161185/blogbox/internal/client/poststore"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/navigation"
	"github.com/and161185/blogbox/internal/screens"
	"github.com/and161185/blogbox/internal/session"
	"github.com/and161185/blogbox/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/uuid/v5"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- logging ----

// newLogger writes JSON logs to the client log file; the terminal belongs to the UI.
func newLogger(debug bool) (*zap.Logger, error) {
	if err := os.MkdirAll(client.ConfigDir(), 0o700); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{client.LogPath()}
	cfg.ErrorOutputPaths = []string{client.LogPath()}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// ---- notifications ----

// printNotifier renders notifications for one-shot commands.
type printNotifier struct {
	out io.Writer
	err io.Writer
}

func (p printNotifier) Notify(n screens.Notification) {
	if n.Level == screens.LevelError {
		fmt.Fprintf(p.err, "%s: %s\n", n.Title, n.Message)
		return
	}
	fmt.Fprintln(p.out, n.Message)
}

// ---- client stack ----

type app struct {
	conn    *grpc.ClientConn
	auth    *authstore.Store
	watcher *session.Watcher
	nav     *navigation.Controller
	screens *screens.Set
	log     *zap.Logger
}

func newApp(cfg client.DialConfig, log *zap.Logger, notify screens.Notifier) (*app, error) {
	cc, err := client.Dial(cfg)
	if err != nil {
		return nil, err
	}
	cli := api.NewBlogClient(cc)

	opts := []authstore.Option{authstore.WithLogger(log)}
	if !cfg.Secure() {
		opts = append(opts, authstore.WithPlaintext())
	}
	auth := authstore.New(cli, client.SessionPath(), opts...)
	posts := poststore.New(cli, auth)

	watcher := session.NewWatcher(auth, log)
	nav := navigation.NewController(navigation.DefaultTable(), log)
	nav.Attach(watcher)

	set := screens.New(screens.Deps{Auth: auth, Posts: posts, Nav: nav, Notify: notify, Log: log})
	return &app{conn: cc, auth: auth, watcher: watcher, nav: nav, screens: set, log: log}, nil
}

func (a *app) close() {
	a.watcher.Close()
	a.auth.Close()
	_ = a.conn.Close()
}

// ---- utils ----

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type postRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"`
}

func toRow(p model.Post) postRow {
	return postRow{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC(),
		UserID:      p.UserID.String(),
	}
}

func printPosts(w io.Writer, ps []model.Post) {
	for _, p := range ps {
		fmt.Fprintf(w, "%s  %s  %s\n", p.ID, p.CreatedAt.UTC().Format(time.RFC3339), p.Title)
	}
}

func printPost(w io.Writer, p model.Post) {
	fmt.Fprintf(w, "%s\n%s\n", p.Title, strings.Repeat("=", len([]rune(p.Title))))
	fmt.Fprintf(w, "id:      %s\ncreated: %s\nimage:   %s\n\n%s\n",
		p.ID, p.CreatedAt.UTC().Format(time.RFC3339), p.ImageURL, p.Description)
}

func findPost(ps []model.Post, id uuid.UUID) (model.Post, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}
	return model.Post{}, false
}

func usage() {
	fmt.Fprintf(os.Stderr, `blog client
Usage:
  blog [-addr HOST:PORT] [-cacert file | -insecure | -plaintext] [-debug] <cmd> [args]

Commands:
  tui                                               (default; interactive)
  version
  signup   -email <email> -password <pw> [-confirm <pw>]
  login    -email <email> -password <pw>            (saves session)
  logout
  whoami
  posts    [-json]                                  (newest first)
  show     -id <uuid>
  add      -title <t> -desc <d> -image <url>
`)
	os.Exit(2)
}

// ---- main ----

// main dispatches subcommands over a shared client stack.
func main() {
	addr := flag.String("addr", envOr("BLOGBOX_ADDR", "localhost:8443"), "server addr")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "no TLS (local dev)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	cmd := "tui"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	args := []string{}
	if flag.NArg() > 1 {
		args = flag.Args()[1:]
	}
	if cmd == "version" {
		fmt.Printf("blog %s (%s)\n", version, buildDate)
		return
	}

	log, err := newLogger(*debug)
	if err != nil {
		fail(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dc := client.DialConfig{Addr: *addr, CACert: *caPath, Insecure: *insecure, Plaintext: *plaintext}
	if cmd == "tui" {
		if err := runTUI(ctx, dc, log); err != nil {
			fail(err)
		}
		return
	}

	a, err := newApp(dc, log, printNotifier{out: os.Stdout, err: os.Stderr})
	if err != nil {
		fail(err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = runCommand(ctx, a, cmd, args, os.Stdout)
	cancel()
	a.close()

	switch {
	case errors.Is(err, errUsage):
		usage()
	case err != nil:
		_ = log.Sync()
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// runCommand executes a one-shot command. Screen failures have already been
// reported through the notifier.
func runCommand(ctx context.Context, a *app, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		email := fs.String("email", "", "email")
		pw := fs.String("password", "", "password")
		confirm := fs.String("confirm", "", "password confirmation (defaults to -password)")
		_ = fs.Parse(args)
		if *confirm == "" {
			*confirm = *pw
		}
		return a.screens.Signup.Submit(ctx, screens.Registration{Email: *email, Password: *pw, ConfirmPassword: *confirm})

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		pw := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if err := a.screens.Login.Submit(ctx, screens.Credentials{Email: *email, Password: *pw}); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")

	case "logout":
		err := a.screens.Profile.Logout(ctx)
		fmt.Fprintln(out, "signed out")
		return err

	case "whoami":
		st := a.watcher.Start(ctx)
		if !st.Authenticated() {
			fmt.Fprintln(out, "not signed in")
			return nil
		}
		fmt.Fprintf(out, "%s (%s)\n", st.Identity.Email, st.Identity.ID)

	case "posts":
		fs := flag.NewFlagSet("posts", flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print JSON")
		_ = fs.Parse(args)
		ps, err := a.screens.ViewPosts.Load(ctx)
		if err != nil {
			return err
		}
		if *asJSON {
			rows := make([]postRow, 0, len(ps))
			for _, p := range ps {
				rows = append(rows, toRow(p))
			}
			printJSON(out, rows)
			return nil
		}
		printPosts(out, ps)

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		id := fs.String("id", "", "post id (uuid)")
		_ = fs.Parse(args)
		pid, err := uuid.FromString(*id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "need -id <uuid>")
			return errUsage
		}
		ps, err := a.screens.ViewPosts.Load(ctx)
		if err != nil {
			return err
		}
		p, ok := findPost(ps, pid)
		if !ok {
			fmt.Fprintln(os.Stderr, "post not found")
			return errors.New("post not found")
		}
		printPost(out, p)

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "post title")
		desc := fs.String("desc", "", "post description")
		image := fs.String("image", "", "image URL")
		_ = fs.Parse(args)
		return a.screens.AddPost.Submit(ctx, screens.PostForm{Title: *title, Description: *desc, ImageURL: *image})

	default:
		return errUsage
	}
	return nil
}

// runTUI starts the interactive client.
func runTUI(ctx context.Context, dc client.DialConfig, log *zap.Logger) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("tui needs a terminal; use a one-shot command instead (see -h)")
	}
	br := tui.NewBridge()
	a, err := newApp(dc, log, br)
	if err != nil {
		return err
	}
	defer a.close()

	m := tui.New(tui.Config{
		Nav:     a.nav,
		Screens: a.screens,
		Bridge:  br,
		Log:     log,
		Context: ctx,
		Boot:    func() { a.watcher.Start(ctx) },
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// ---- helpers ----

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
