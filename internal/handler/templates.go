package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
)

func sub(a, b int) int { return a - b }
func add(a, b int) int { return a + b }

func bytesToMB(bytes int64) int64 {
	return bytes / (1024 * 1024)
}

func formatDate(t time.Time) string {
	return t.Format("3:04 PM - Jan 2, 2006")
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

var templateFuncs = template.FuncMap{
	"sub":        sub,
	"add":        add,
	"dict":       dict,
	"bytesToMB":  bytesToMB,
	"formatDate": formatDate,
	"join":       strings.Join,
}

// LoadTemplates parses every page under dir together with the base layout and
// the shared partials. Pages are keyed by file name.
func LoadTemplates(fsys fs.FS, dir string) (map[string]*template.Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if path.Ext(name) != ".html" || name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(templateFuncs).ParseFS(fsys,
			path.Join(dir, baseTemplate),
			path.Join(dir, name),
			path.Join(dir, partialsTemplate),
		)
		if err != nil {
			return nil, fmt.Errorf("can't parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func MustLoadTemplates(fsys fs.FS, dir string) map[string]*template.Template {
	templates, err := LoadTemplates(fsys, dir)
	if err != nil {
		panic(err.Error())
	}
	return templates
}
