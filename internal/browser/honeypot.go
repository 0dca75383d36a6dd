package browser

import (
	"context"
	"fmt"
)

// InstallHoneypot adds a hidden input named field to every form of the page that
// lacks one and returns how many forms were changed.
func (p *Page) InstallHoneypot(ctx context.Context, field string) (int, error) {
	res, err := p.eval(ctx, `(field) => {
		let installed = 0;
		document.querySelectorAll('form').forEach((form) => {
			if (form.querySelector('input[name="' + field + '"]')) return;
			const input = document.createElement('input');
			input.type = 'text';
			input.name = field;
			input.style.display = 'none';
			input.tabIndex = -1;
			input.autocomplete = 'off';
			form.appendChild(input);
			installed++;
		});
		return installed;
	}`, field)
	if err != nil {
		return 0, fmt.Errorf("install honeypot: %w", err)
	}
	return res.Value.Int(), nil
}
