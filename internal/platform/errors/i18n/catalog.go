// Package i18n renders user-facing error messages from the "errors"
// namespace of the embedded locale catalog.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/duality-sheet/internal/platform/i18n/catalog"
)

// Code is an error code string.
type Code = string

const namespace = "errors"

// Messages holds the compiled error templates of one locale.
type Messages struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

// compiled caches Messages by resolved locale.
var compiled sync.Map

// For negotiates locale against the catalog bundle and returns its
// messages. Unknown locales resolve to the base locale.
func For(locale string) *Messages {
	resolved, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(locale, namespace)
	if cached, ok := compiled.Load(resolved); ok {
		return cached.(*Messages)
	}
	cached, _ := compiled.LoadOrStore(resolved, Compile(resolved, messages))
	return cached.(*Messages)
}

// Compile parses every template in messages. A template that fails to parse
// renders its raw text.
func Compile(locale string, messages map[Code]string) *Messages {
	m := &Messages{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		code = strings.TrimSpace(code)
		m.raw[code] = text
		tmpl, err := template.New(code).Option("missingkey=zero").Parse(text)
		if err != nil {
			continue
		}
		m.templates[code] = tmpl
	}
	return m
}

// Locale returns the resolved locale.
func (m *Messages) Locale() string {
	return m.locale
}

// Has reports whether code has a template.
func (m *Messages) Has(code Code) bool {
	_, ok := m.raw[code]
	return ok
}

// Render executes the template for code with metadata. An unknown code
// renders as the code itself.
func (m *Messages) Render(code Code, metadata map[string]string) string {
	raw, ok := m.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := m.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, metadata); err != nil {
		return raw
	}
	return b.String()
}
