package markup

import "html/template"

// ToastView is the data rendered into one notification element.
type ToastView struct {
	ID         string
	Message    string
	Icon       string
	Background string
}

var toastTmpl = template.Must(template.New("toast").Parse(
	`<div id="{{.ID}}" class="toast show align-items-center text-white {{.Background}} border-0" role="alert">` +
		`<div class="d-flex"><div class="toast-body">` +
		`<i class="fas {{.Icon}} me-2"></i>{{.Message}}</div>` +
		`<button type="button" class="btn-close btn-close-white me-2 m-auto" data-dismiss="{{.ID}}"></button>` +
		`</div></div>`))

// Toast renders a dismissible notification element.
func Toast(v ToastView) string {
	return render(toastTmpl, v)
}
