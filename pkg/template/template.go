// Copyright KubeArchive Authors
// SPDX-License-Identifier: Apache-2.0

// Package template renders the resource document templates used to
// synthesize load. A template is loaded once at process start and is
// safe to share across every virtual user.
package template

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/drone/envsubst"
)

// LoadError reports that a template file could not be read or parsed.
// It is fatal: no task can run without the template.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading template %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MissingBindingError reports placeholders that had no bound value at
// render time. The binding sets produced by the payload generator are
// fixed, so hitting this means a programming defect, not bad input.
type MissingBindingError struct {
	Placeholders []string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("no binding for placeholder(s): %s", strings.Join(e.Placeholders, ", "))
}

// Template is an immutable document with ${name} placeholders.
type Template struct {
	tmpl *envsubst.Template
}

// Load reads and parses the template at path.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	t, err := Parse(string(raw))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

// Parse parses an in-memory template.
func Parse(raw string) (*Template, error) {
	t, err := envsubst.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return &Template{tmpl: t}, nil
}

// Render substitutes every placeholder with its binding. Every
// placeholder in the template must be bound, there is no silent
// pass-through. Rendering is deterministic for identical bindings and
// safe for concurrent use.
func (t *Template) Render(bindings map[string]string) (string, error) {
	var missing []string
	reported := map[string]bool{}
	out, err := t.tmpl.Execute(func(name string) string {
		value, ok := bindings[name]
		if !ok && !reported[name] {
			reported[name] = true
			missing = append(missing, name)
		}
		return value
	})
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &MissingBindingError{Placeholders: missing}
	}
	return out, nil
}
