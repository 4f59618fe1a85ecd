// Package render formats values for the terminal with text/template and
// the sprig function library.
package render

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultItemFormat prints one catalog item per line.
const DefaultItemFormat = `{{ printf "%-10s" (.ID | trunc 10) }} {{ printf "%-32s" (.Name | default "(unnamed)" | trunc 32) }} ` +
	`{{ if .Price.Valid }}Rs {{ .Price.Decimal.StringFixed 2 }}{{ with .Unit }}/{{ . }}{{ end }}{{ else }}-{{ end }}` +
	`{{ with .Category }}  [{{ . | lower }}]{{ end }}`

// DefaultCartFormat prints the cart lines and total.
const DefaultCartFormat = `{{ range .Lines }}{{ printf "%-10s" .ProductID }} {{ .Name | trunc 24 }} x{{ .Quantity }} = Rs {{ .Subtotal.StringFixed 2 }}
{{ else }}(cart is empty)
{{ end }}{{ if not .IsEmpty }}{{ "-" | repeat 40 }}
{{ .Count }} item(s), total Rs {{ .Total.StringFixed 2 }}
{{ end }}`

type Renderer struct {
	tmpl *template.Template
}

// New parses format. Sprig functions are available.
func New(name, format string) (*Renderer, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(format)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Execute writes data to w.
func (r *Renderer) Execute(w io.Writer, data any) error {
	return r.tmpl.Execute(w, data)
}

// String renders data into a string.
func (r *Renderer) String(data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTemplate parses and executes tmplStr in one step.
func RenderTemplate(tmplStr string, data any) (string, error) {
	r, err := New("inline", tmplStr)
	if err != nil {
		return "", err
	}
	return r.String(data)
}
