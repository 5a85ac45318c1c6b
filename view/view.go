// Package view renders the dashboard's HTML pages. Templates and static
// assets are embedded; in dev mode they are read from disk on every request.
package view

import (
	"bytes"
	"crypto/sha1"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/middleware"
)

//go:embed templates static
var embedded embed.FS

var partials = []string{
	"partials/flash.html",
	"partials/field.html",
	"partials/pagination.html",
}

// NavItem is one sidebar link; Title is an i18n key.
type NavItem struct {
	Key   string
	Title string
}

// Navigation lists the sidebar links. Scoped links are shown under the
// current event only.
type Navigation struct {
	Global []NavItem
	Scoped []NavItem
}

var (
	mu      sync.RWMutex
	nav     Navigation
	source  fs.FS = embedded
	devMode bool

	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
	assetCache sync.Map

	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	langResolver  = func(r *http.Request) string { return middleware.LangFrom(r) }
	themeResolver = func(r *http.Request) string { return middleware.ThemeFrom(r) }
	// permission resolvers are set by the host app so templates can hide
	// actions the user may not take
	canProfileResolver func(*http.Request, string, string) bool
	isAdminResolver    func(*http.Request) bool
)

// SetCanProfileResolver sets a callback used by templates to check profile-level permissions.
func SetCanProfileResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		canProfileResolver = f
	}
}

// SetIsAdminResolver sets a callback used by templates to show admin links.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// SetLangResolver allows the host app to provide a custom language resolver.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetThemeResolver allows the host app to provide a custom theme resolver.
func SetThemeResolver(f func(*http.Request) string) {
	if f != nil {
		themeResolver = f
	}
}

// SetNavigation sets the sidebar links rendered by the layout.
func SetNavigation(n Navigation) {
	mu.Lock()
	nav = n
	mu.Unlock()
}

// SetDevDir makes the package read templates and static files from dir
// (the directory holding templates/ and static/) without caching. An empty
// dir goes back to the embedded files.
func SetDevDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if dir == "" {
		source, devMode = embedded, false
	} else {
		source, devMode = os.DirFS(dir), true
	}
	resetCaches()
}

// ResetForTests clears caches and restores the embedded files.
func ResetForTests() {
	SetDevDir("")
}

func resetCaches() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	assetCache.Range(func(k, _ any) bool {
		assetCache.Delete(k)
		return true
	})
}

func files() (fs.FS, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return source, devMode
}

// StaticHandler serves the static/ directory; mount it under /static/.
func StaticHandler() http.Handler {
	fsys, _ := files()
	sub, err := fs.Sub(fsys, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Funcs returns the func map bound to r. Templates are parsed once with
// Funcs(nil) and rebound per request.
func Funcs(r *http.Request) template.FuncMap {
	lang, theme := i18n.Default, "system"
	if r != nil {
		lang, theme = langResolver(r), themeResolver(r)
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"tf":   func(code string, args ...any) string { return fmt.Sprintf(i18n.T(lang, code), args...) },
		"lang": func() string { return lang },
		// can checks profile-level permission (resource, action) -> bool
		"can": func(resource, action string) bool {
			if canProfileResolver == nil || r == nil {
				return false
			}
			return canProfileResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			if isAdminResolver == nil || r == nil {
				return false
			}
			return isAdminResolver(r)
		},
		"theme": func() string { return theme },
		"csrfField": func() template.HTML {
			if r == nil {
				return ""
			}
			return csrf.TemplateField(r)
		},
		"markdown": Markdown,
		"add":      func(a, b int) int { return a + b },
		"year":     func() int { return time.Now().Year() },
		"asset":    resolveAsset,
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Markdown renders s as HTML. Raw HTML inside s is dropped by goldmark.
func Markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

// resolveAsset returns /static/<rel>?v=<hash> for cache busting.
func resolveAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	fsys, dev := files()
	if !dev {
		if v, ok := assetCache.Load(rel); ok {
			return v.(string)
		}
	}
	url := "/static/" + rel
	if b, err := fs.ReadFile(fsys, "static/"+rel); err == nil {
		h := sha1.Sum(b)
		url += fmt.Sprintf("?v=%x", h[:8])
	}
	if !dev {
		assetCache.Store(rel, url)
	}
	return url
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	names := append([]string{"templates/layout.html", "templates/" + name}, prefixed(partials)...)
	return template.New("layout.html").Funcs(Funcs(nil)).ParseFS(fsys, names...)
}

func prefixed(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "templates/" + n
	}
	return out
}

func lookup(name string) (*template.Template, error) {
	fsys, dev := files()
	if !dev {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := parse(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !dev {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render executes templates/<name> inside the layout and writes it with
// status 200. name should be the filename (e.g., "dashboard.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code. The page is fully
// rendered before anything is written, so a template error still leaves
// the response untouched for the caller to report.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	base, err := lookup(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))

	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["User"]; !exists {
		if p, ok := auth.PrincipalFrom(r.Context()); ok {
			data["User"] = p
		}
	}
	data["IsLoggedIn"] = data["User"] != nil
	if _, exists := data["Nav"]; !exists {
		mu.RLock()
		data["Nav"] = nav
		mu.RUnlock()
	}
	if _, exists := data["Flash"]; !exists {
		if f := middleware.TakeFlash(w, r); f != nil {
			data["Flash"] = f
		}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
