package main

import (
	"html/template"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mabego/shortlink-web/ui"
)

// templateData holds dynamic data to pass to HTML templates.
type templateData struct {
	IsAuthenticated bool
	UserID          string
	Flash           string
	CSRFToken       string
	Links           accountLinks
	Meta            pageMeta
	Features        []feature
}

type pageMeta struct {
	Title       string
	Description string
}

type feature struct {
	Icon        string
	Title       string
	Description string
}

var siteMeta = pageMeta{
	Title: "Link Shortener - Shorten Links, Amplify Reach",
	Description: "Transform long URLs into short, memorable links. " +
		"Track performance, manage campaigns, and share with confidence.",
}

var landingFeatures = []feature{
	{
		Icon:        "link",
		Title:       "Quick Shortening",
		Description: "Convert long URLs into short, shareable links in seconds",
	},
	{
		Icon:        "chart",
		Title:       "Analytics",
		Description: "Track clicks, locations, and engagement metrics in real-time",
	},
	{
		Icon:        "zap",
		Title:       "Lightning Fast",
		Description: "Blazing fast redirects ensure your audience never waits",
	},
	{
		Icon:        "shield",
		Title:       "Secure & Reliable",
		Description: "Enterprise-grade security keeps your links safe and available",
	},
}

// initial returns the upper-cased first letter of an identifier for the account avatar.
func initial(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "?"
	}

	r, _ := utf8.DecodeRuneInString(id)
	return string(unicode.ToUpper(r))
}

var functions = template.FuncMap{"initial": initial}

func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	// Use fs.Glob to get a slice of all the 'page' files in the ui.Files embedded filesystem.
	pages, err := fs.Glob(ui.Files, "html/*.page.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)

		patterns := []string{
			"html/base.layout.tmpl",
			"html/*.partial.tmpl",
			page,
		}

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return cache, nil
}
