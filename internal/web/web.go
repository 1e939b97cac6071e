// Package web renders the three server-side pages inside the navigation
// shell.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/DoyleJ11/profit-backend/internal/nav"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageHome   = "home"
	PageLive   = "live"
	PageUpload = "upload"
)

type Data struct {
	Title       string
	Path        string
	Links       []nav.Link
	MobileLinks []nav.Link
	Menu        nav.Menu
	Body        any
}

type Pages struct {
	tmpl map[string]*template.Template
}

func New() (*Pages, error) {
	p := &Pages{tmpl: make(map[string]*template.Template)}
	for _, name := range []string{PageHome, PageLive, PageUpload} {
		t, err := template.ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.tmpl[name] = t
	}
	return p, nil
}

func (p *Pages) Render(w io.Writer, name string, d Data) error {
	t, ok := p.tmpl[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", d)
}

// Handler serves a page for the request path, wrapping body in the shell.
func (p *Pages) Handler(name, title string, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu := nav.MenuFrom(r)
		if menu.Open && nav.Navigated(r) {
			menu = menu.Toggle()
			http.SetCookie(w, menu.Cookie())
		}
		d := Data{
			Title:       title,
			Path:        r.URL.Path,
			Links:       nav.Links(r.URL.Path),
			MobileLinks: nav.MobileLinks(r.URL.Path),
			Menu:        menu,
			Body:        body,
		}
		// Render into a buffer so a template error never ships half a page.
		var buf bytes.Buffer
		if err := p.Render(&buf, name, d); err != nil {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

// ToggleMenu flips the mobile menu flag and sends the browser back.
func ToggleMenu(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, nav.MenuFrom(r).Toggle().Cookie())
	back := r.Referer()
	if back == "" {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
