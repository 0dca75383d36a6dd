package markup

import (
	"bytes"
	"html/template"
)

var (
	loadingTmpl = template.Must(template.New("loading").Parse(
		`<div class="text-center py-5">` +
			`<div class="spinner-border text-primary" style="width: 3rem; height: 3rem;" role="status">` +
			`<span class="visually-hidden">Loading...</span></div>` +
			`<p class="mt-3 text-muted">{{.}}</p></div>`))

	errorTmpl = template.Must(template.New("error").Parse(
		`<div class="alert alert-danger" role="alert">` +
			`<h4 class="alert-heading"><i class="fas fa-exclamation-triangle"></i> Could not load page</h4>` +
			`<p>The requested page could not be loaded.</p><hr>` +
			`<p class="mb-0"><strong>Details:</strong> {{.}}</p>` +
			`<button class="btn btn-outline-danger mt-3" onclick="location.reload()">` +
			`<i class="fas fa-redo"></i> Reload page</button></div>`))
)

// LoadingPanel renders the placeholder shown while a fragment is in flight.
func LoadingPanel(text string) string {
	if text == "" {
		text = "Loading content..."
	}
	return render(loadingTmpl, text)
}

// ErrorPanel renders the inline failure panel with the reload affordance.
func ErrorPanel(message string) string {
	return render(errorTmpl, message)
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// Templates are static and data is a string; execution cannot fail.
	_ = t.Execute(&buf, data)
	return buf.String()
}
