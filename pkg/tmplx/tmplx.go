package tmplx

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

var (
	ErrRenderTemplate = errors.New("tmplx: render error")
	ErrParseTemplate  = errors.New("tmplx: parse error")
)

type Template struct {
	tmpl *template.Template
}

type Options struct {
	validate ValidateFunc
	testData any
	funcs    template.FuncMap
}

type Option func(*Options) error

type ValidateFunc func(*bytes.Buffer) error

// defaultFuncs returns the default template functions
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"default":  defaultFunc,
		"json":     jsonFunc,
		"escape":   escapeFunc,
		"truncate": truncateFunc,
		"repeat":   strings.Repeat,
	}
}

// WithTemplateFunc adds a single custom template function
func WithTemplateFunc(name string, fn any) Option {
	return func(t *Options) error {
		if fn == nil {
			return fmt.Errorf("%w: nil func %q", ErrParseTemplate, name)
		}
		t.funcs[name] = fn
		return nil
	}
}

// WithValidate adds validation using test data
func WithValidate(testData any, validateFn ValidateFunc) Option {
	return func(t *Options) error {
		t.validate = validateFn
		t.testData = testData
		return nil
	}
}

func MustParse(name string, text string, opts ...Option) *Template {
	t, err := Parse(name, text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse creates a new Template with the given name and text, applying any options
func Parse(name string, text string, args ...Option) (*Template, error) {
	opts := &Options{
		funcs: defaultFuncs(),
	}
	for _, arg := range args {
		if err := arg(opts); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(opts.funcs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseTemplate, err)
	}

	t := &Template{
		tmpl: tmpl,
	}
	if opts.validate != nil {
		if err := t.validate(opts.testData, opts.validate); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Template) validate(data any, validate ValidateFunc) error {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	if err := validate(buf); err != nil {
		return fmt.Errorf("validate template: %w", err)
	}
	return nil
}

func (t *Template) Render(data any) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := t.tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderTemplate, err)
	}
	return buf, nil
}

// RenderString renders data and trims surrounding whitespace.
func (t *Template) RenderString(data any) (string, error) {
	buf, err := t.Render(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func defaultFunc(def any, value any) any {
	if value != nil && value != "" {
		return value
	}
	return def
}

func jsonFunc(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func escapeFunc(value any) string {
	return html.EscapeString(cast.ToString(value))
}

// truncateFunc keeps the first limit runes of value and marks the cut with "...".
func truncateFunc(limit int, value any) string {
	runes := []rune(cast.ToString(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
