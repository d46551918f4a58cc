package sheet

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
)

// DefaultClassNameTemplate produces "<slug of name>-<sheet id>-<index>".
// Names without any sluggable characters become "rule".
const DefaultClassNameTemplate = `{{ slug .Name | default "rule" }}{{ with .Sheet }}-{{ . }}{{ end }}-{{ .Index }}`

// ClassData is available to class name templates.
type ClassData struct {
	Name  string // declared name
	Sheet string // sheet id, empty for standalone rules
	Index int    // ordinal of the class within the sheet or among standalone rules
}

// ClassNamer generates class token for a declared name.
type ClassNamer func(data ClassData) (string, error)

func classFuncs() template.FuncMap {
	funcs := sprig.FuncMap()
	funcs["slug"] = slug.Make
	return funcs
}

// ParseClassNameTemplate checks class name template text.
func ParseClassNameTemplate(text string) (*template.Template, error) {
	return template.New("class").Funcs(classFuncs()).Option("missingkey=error").Parse(text)
}

// TemplateClassNamer returns namer which renders text template. Template has
// access to slim-sprig functions and "slug".
func TemplateClassNamer(text string) (ClassNamer, error) {
	tmpl, err := ParseClassNameTemplate(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse class name template: %w", err)
	}
	return func(data ClassData) (string, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("unable to render class name for %q: %w", data.Name, err)
		}
		return strings.TrimSpace(buf.String()), nil
	}, nil
}

// DefaultClassNamer uses DefaultClassNameTemplate.
func DefaultClassNamer() ClassNamer {
	n, err := TemplateClassNamer(DefaultClassNameTemplate)
	if err != nil {
		// this should never happen
		panic(err)
	}
	return n
}
