package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"chemxplore/internal/authform"
	"chemxplore/internal/chat"
	"chemxplore/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticPath is where the site's stylesheet and other assets are served.
const StaticPath = "/static"

// Static serves the embedded assets linked from the page templates.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

var pageTemplates = map[string]string{
	"/":          "templates/home.html",
	"/chemicals": "templates/chemicals.html",
	"/procedure": "templates/procedure.html",
	"/process":   "templates/process.html",
	"/media":     "templates/media.html",
	"/faq":       "templates/faq.html",
}

var funcs = template.FuncMap{
	"fallback": func() string { return chat.FallbackReply },
}

// AuthView is the state of the sign-in page.
type AuthView struct {
	Mode   authform.Mode
	Email  string
	Errors authform.FieldErrors
	Notice *authform.Notice
}

func (v AuthView) SignUp() bool {
	return v.Mode == authform.ModeSignUp
}

// Renderer renders pages from the embedded content. Each page is parsed into
// its own template set so "content" blocks never collide.
type Renderer struct {
	content  *Content
	pages    map[string]*template.Template
	auth     *template.Template
	notFound *template.Template
}

func NewRenderer() (*Renderer, error) {
	content, err := LoadContent()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		content: content,
		pages:   make(map[string]*template.Template, len(pageTemplates)),
	}
	for route, file := range pageTemplates {
		tpl, err := parse("templates/base.html", "templates/layout.html", file)
		if err != nil {
			return nil, err
		}
		r.pages[route] = tpl
	}
	if r.auth, err = parse("templates/base.html", "templates/auth.html"); err != nil {
		return nil, err
	}
	if r.notFound, err = parse("templates/base.html", "templates/notfound.html"); err != nil {
		return nil, err
	}
	return r, nil
}

func parse(files ...string) (*template.Template, error) {
	tpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, files...)
	if err != nil {
		return nil, fmt.Errorf("parse templates %v failed: %w", files, err)
	}
	return tpl, nil
}

func (r *Renderer) Content() *Content {
	return r.content
}

// Context builds the render context for a content page.
func (r *Renderer) Context(route string, user *session.User) (Context, bool) {
	page, ok := Lookup(route)
	if !ok {
		return Context{}, false
	}
	return Context{
		Page:    page,
		User:    user,
		Content: r.content,
		Nav:     Nav(route),
	}, true
}

func (r *Renderer) RenderHTML(w io.Writer, ctx Context) error {
	tpl, ok := r.pages[ctx.Page.Path]
	if !ok {
		return r.RenderNotFoundHTML(w, ctx.Page.Path)
	}
	return tpl.ExecuteTemplate(w, "layout", ctx)
}

func (r *Renderer) RenderAuthHTML(w io.Writer, view AuthView) error {
	return r.auth.ExecuteTemplate(w, "layout", view)
}

func (r *Renderer) RenderNotFoundHTML(w io.Writer, route string) error {
	return r.notFound.ExecuteTemplate(w, "layout", route)
}
