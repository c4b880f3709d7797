// Package terminal is the interactive client: it keeps a session controller
// mounted for the life of the process, renders pages as text through the
// route guard, and drives the auth form and chat widget from a line-based
// prompt.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"chemxplore/internal/authform"
	"chemxplore/internal/chat"
	"chemxplore/internal/guard"
	"chemxplore/internal/identity"
	"chemxplore/internal/pages"
	"chemxplore/internal/session"
)

const helpText = `Commands:
  /go <route>   open a page (/, /chemicals, /procedure, /process, /media, /faq, /auth)
  /pages        list the pages
  /signin       sign in with email and password
  /signup       create an account
  /toggle       switch the form between sign in and sign up
  /logout       sign out
  /whoami       show the signed-in user
  /help         show this help
  /quit         exit
Anything else is sent to the chemistry assistant.`

type Options struct {
	Provider identity.Provider
	Relayer  chat.Relayer
	Renderer *pages.Renderer
	Guard    *guard.Guard
	// RedirectTo is sent with sign-up as the verification landing page.
	RedirectTo string
	In         io.Reader
	Out        io.Writer
	Logger     *slog.Logger
}

type Terminal struct {
	provider   identity.Provider
	controller *session.Controller
	guard      *guard.Guard
	renderer   *pages.Renderer
	widget     *chat.Widget
	form       *authform.Form
	redirectTo string

	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger

	route string
	dirty atomic.Bool
}

func New(opts Options) *Terminal {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Terminal{
		provider:   opts.Provider,
		controller: session.NewController(opts.Provider, logger),
		guard:      opts.Guard,
		renderer:   opts.Renderer,
		widget:     chat.NewWidget(opts.Relayer, logger),
		form:       authform.New(),
		redirectTo: opts.RedirectTo,
		in:         bufio.NewScanner(opts.In),
		out:        opts.Out,
		logger:     logger.With("component", "terminal"),
		route:      guard.HomeRoute,
	}
	t.controller.OnChange(func(session.State) { t.dirty.Store(true) })
	return t
}

// Run mounts the session controller, shows the home route and reads commands
// until /quit, end of input or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	t.controller.Mount(ctx)
	defer t.controller.Unmount()

	fmt.Fprintln(t.out, "=== ChemXplore ===")
	fmt.Fprintln(t.out, "Loading...")
	select {
	case <-t.controller.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	t.dirty.Store(false)
	t.show(t.route)
	fmt.Fprintln(t.out, "Type /help for commands, /quit to exit")

	for {
		fmt.Fprintf(t.out, "%s> ", t.route)
		line, ok := t.readLine()
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		quit, err := t.handle(ctx, line)
		if err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
			t.logger.Error("command failed", "input", line, "error", err)
		}
		if quit {
			break
		}
		if t.dirty.Swap(false) {
			t.show(t.route)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	fmt.Fprintln(t.out, "Goodbye!")
	return t.in.Err()
}

func (t *Terminal) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, t.ask(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(t.out, helpText)
	case "/go", "/open":
		if arg == "" {
			return false, errors.New("usage: /go <route>")
		}
		if !strings.HasPrefix(arg, "/") {
			arg = "/" + arg
		}
		t.show(arg)
	case "/pages":
		for _, item := range pages.Nav(t.route) {
			marker := " "
			if item.Active {
				marker = "*"
			}
			fmt.Fprintf(t.out, " %s %-10s %s\n", marker, item.Path, item.Name)
		}
	case "/signin":
		t.form.Mode = authform.ModeSignIn
		return false, t.submit(ctx)
	case "/signup":
		t.form.Mode = authform.ModeSignUp
		return false, t.submit(ctx)
	case "/toggle":
		t.form.Toggle()
		t.show(guard.LoginRoute)
	case "/logout":
		if err := t.provider.SignOut(ctx); err != nil {
			return false, fmt.Errorf("sign out failed: %w", err)
		}
	case "/whoami":
		if user := t.controller.State().User; user != nil {
			fmt.Fprintln(t.out, user.Email)
		} else {
			fmt.Fprintln(t.out, "Not signed in")
		}
	default:
		return false, fmt.Errorf("unknown command %s, type /help", cmd)
	}
	return false, nil
}

// show resolves route through the guard and renders the outcome.
func (t *Terminal) show(route string) {
	state := t.controller.State()
	decision := t.guard.Decide(route, state.SignedIn())

	switch decision.Outcome {
	case guard.Redirect:
		t.logger.Debug("route redirected", "from", route, "to", decision.Location)
		t.show(decision.Location)
		return
	case guard.NotFound:
		t.route = route
		if err := t.renderer.RenderNotFoundText(t.out, route); err != nil {
			t.logger.Error("render not found failed", "route", route, "error", err)
		}
		return
	}

	t.route = route
	if route == guard.LoginRoute {
		t.renderAuth(nil)
		return
	}
	pageCtx, ok := t.renderer.Context(route, state.User)
	if !ok {
		_ = t.renderer.RenderNotFoundText(t.out, route)
		return
	}
	if err := t.renderer.RenderText(t.out, pageCtx); err != nil {
		t.logger.Error("render page failed", "route", route, "error", err)
	}
}

func (t *Terminal) renderAuth(notice *authform.Notice) {
	fmt.Fprintln(t.out, "ChemXplore")
	fmt.Fprintln(t.out, "Your Chemistry Experiment Portal")
	t.printNotice(notice)
	if t.form.Mode == authform.ModeSignUp {
		fmt.Fprintln(t.out, "Create Account: /signup  (already have an account? /toggle)")
	} else {
		fmt.Fprintln(t.out, "Welcome Back: /signin  (no account yet? /toggle)")
	}
}

func (t *Terminal) printNotice(notice *authform.Notice) {
	if notice == nil {
		return
	}
	prefix := "*"
	if notice.Destructive {
		prefix = "!"
	}
	fmt.Fprintf(t.out, "%s %s: %s\n", prefix, notice.Title, notice.Description)
}

// submit prompts for the form's fields and submits it. A successful sign-in
// surfaces through the auth-state subscription, not through this call.
func (t *Terminal) submit(ctx context.Context) error {
	if t.controller.State().SignedIn() {
		t.show(guard.LoginRoute)
		return nil
	}

	var ok bool
	if t.form.Email, ok = t.prompt("Email: "); !ok {
		return io.ErrUnexpectedEOF
	}
	if t.form.Password, ok = t.prompt("Password: "); !ok {
		return io.ErrUnexpectedEOF
	}
	if t.form.Mode == authform.ModeSignUp {
		if t.form.ConfirmPassword, ok = t.prompt("Confirm Password: "); !ok {
			return io.ErrUnexpectedEOF
		}
	}

	notice := t.form.Submit(ctx, t.provider, t.redirectTo)
	t.form.Password = ""
	t.form.ConfirmPassword = ""

	for _, key := range []string{authform.FieldEmail, authform.FieldPassword, authform.FieldConfirmPassword} {
		if msg, found := t.form.Errors[key]; found {
			fmt.Fprintf(t.out, "  %s: %s\n", key, msg)
		}
	}
	t.printNotice(notice)
	return nil
}

func (t *Terminal) ask(ctx context.Context, text string) error {
	if !t.controller.State().SignedIn() {
		fmt.Fprintln(t.out, "Sign in to chat with the ChemXplore assistant.")
		return nil
	}
	fmt.Fprintln(t.out, "...")
	reply, err := t.widget.Send(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Assistant: %s\n\n", reply.Content)
	return nil
}

func (t *Terminal) prompt(label string) (string, bool) {
	fmt.Fprint(t.out, label)
	return t.readLine()
}

func (t *Terminal) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}
