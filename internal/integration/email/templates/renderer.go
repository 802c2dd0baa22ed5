// Package templates provides email template rendering functionality.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed *.html
var templateFS embed.FS

const (
	layoutTemplate   = "layout.html"
	fallbackTemplate = "fallback.html"
	defaultBrand     = "RealtyHub"
)

// registry lists the named fragments a payload can reference.
var registry = map[string]string{
	"password_reset":      "password_reset.html",
	"showing_request":     "showing_request.html",
	"reverse_prospecting": "reverse_prospecting.html",
	"hot_sheet_alert":     "hot_sheet_alert.html",
	"campaign":            "campaign.html",
}

// fallbackKeys are tried in order when no fragment can render the payload.
var fallbackKeys = []string{"message", "body", "text", "description", "subject"}

// Renderer turns a template name and its variables into an HTML document.
type Renderer struct {
	templates *htmltemplate.Template
	brand     string
	logger    *zap.Logger
}

// NewRenderer creates a new template renderer.
func NewRenderer(brand string, logger *zap.Logger) (*Renderer, error) {
	if brand == "" {
		brand = defaultBrand
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := htmltemplate.New("email").Funcs(htmltemplate.FuncMap{
		"get":  get,
		"list": list,
	}).ParseFS(templateFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML templates: %w", err)
	}

	return &Renderer{
		templates: tmpl,
		brand:     brand,
		logger:    logger,
	}, nil
}

// Render never fails. A non-empty vars["html"] is returned verbatim; otherwise the
// named fragment is wrapped in the layout, and unknown names or fragments that
// fail to execute fall back to a generic body.
func (r *Renderer) Render(name string, vars map[string]interface{}) string {
	if html, ok := vars["html"].(string); ok && strings.TrimSpace(html) != "" {
		return html
	}

	body, err := r.renderFragment(name, vars)
	if err != nil {
		r.logger.Warn("email template fell back to generic body",
			zap.String("template", name),
			zap.Error(err),
		)
		body = r.renderFallback(vars)
	}

	return r.wrap(stringVar(vars, "subject"), body)
}

// Has reports whether name is a registered fragment.
func (r *Renderer) Has(name string) bool {
	_, ok := registry[name]
	return ok
}

func (r *Renderer) renderFragment(name string, vars map[string]interface{}) (htmltemplate.HTML, error) {
	file, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, file, vars); err != nil {
		return "", fmt.Errorf("failed to render HTML template %s: %w", name, err)
	}
	return htmltemplate.HTML(buf.String()), nil
}

func (r *Renderer) renderFallback(vars map[string]interface{}) htmltemplate.HTML {
	text := "You have a new notification."
	for _, key := range fallbackKeys {
		if v := stringVar(vars, key); v != "" {
			text = v
			break
		}
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, fallbackTemplate, paragraphs); err != nil {
		return htmltemplate.HTML("<p>" + htmltemplate.HTMLEscapeString(text) + "</p>")
	}
	return htmltemplate.HTML(buf.String())
}

func (r *Renderer) wrap(subject string, body htmltemplate.HTML) string {
	data := struct {
		Subject string
		Brand   string
		Body    htmltemplate.HTML
		Year    int
	}{
		Subject: subject,
		Brand:   r.brand,
		Body:    body,
		Year:    time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		r.logger.Error("failed to render email layout", zap.Error(err))
		return "<!DOCTYPE html><html><body>" + string(body) + "</body></html>"
	}
	return buf.String()
}

// get returns vars[key], or an empty string when it is absent.
func get(vars map[string]interface{}, key string) interface{} {
	if v, ok := vars[key]; ok && v != nil {
		return v
	}
	return ""
}

// list returns vars[key] as a slice, or nil when it is absent or not a list.
func list(vars map[string]interface{}, key string) []interface{} {
	switch v := vars[key].(type) {
	case []interface{}:
		return v
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	default:
		return nil
	}
}

func stringVar(vars map[string]interface{}, key string) string {
	if s, ok := vars[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
