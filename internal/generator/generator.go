// Package generator renders project and entity scaffolding from templates.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-]*$`)

// projectData feeds the project templates.
type projectData struct {
	Name   string
	Module string
}

// entityData feeds the entity templates.
type entityData struct {
	Entity      string
	LowerEntity string
	Table       string
	Module      string
}

// file pairs a relative output path with a template body.
type file struct {
	path     string
	template string
}

var projectFiles = []file{
	{path: "go.mod", template: projectGoModTemplate},
	{path: "config.yaml", template: projectConfigTemplate},
	{path: "main.go", template: projectMainTemplate},
}

var entityFiles = []file{
	{path: filepath.Join("internal", "model", "%s.go"), template: entityModelTemplate},
	{path: filepath.Join("internal", "dto", "%s.go"), template: entityDTOTemplate},
	{path: filepath.Join("internal", "service", "%s.go"), template: entityServiceTemplate},
	{path: filepath.Join("internal", "controller", "%s.go"), template: entityControllerTemplate},
}

// NewProject scaffolds a project skeleton under dir/name.
func NewProject(dir, name, module string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid project name %q", name)
	}
	if module == "" {
		module = name
	}

	root := filepath.Join(dir, name)
	if _, err := os.Stat(root); err == nil {
		return fmt.Errorf("directory %s already exists", root)
	}

	data := projectData{Name: name, Module: module}
	for _, f := range projectFiles {
		if err := render(filepath.Join(root, f.path), f.template, data); err != nil {
			return err
		}
	}
	return nil
}

// NewEntity renders model, DTO, service, and controller stubs for an entity
// into an existing project rooted at dir.
func NewEntity(dir, name, module string) error {
	if !namePattern.MatchString(name) || strings.ContainsAny(name, "-_") {
		return fmt.Errorf("invalid entity name %q", name)
	}
	if module == "" {
		module = filepath.Base(dir)
	}

	entity := exported(name)
	lower := strings.ToLower(entity)
	data := entityData{
		Entity:      entity,
		LowerEntity: lower,
		Table:       pluralize(lower),
		Module:      module,
	}

	for _, f := range entityFiles {
		path := filepath.Join(dir, fmt.Sprintf(f.path, lower))
		if err := render(path, f.template, data); err != nil {
			return err
		}
	}
	return nil
}

func render(path, body string, data any) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(body)
	if err != nil {
		return fmt.Errorf("parsing template for %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := tmpl.Execute(out, data); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return nil
}

func exported(name string) string {
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func pluralize(name string) string {
	switch {
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"),
		strings.HasSuffix(name, "ch"), strings.HasSuffix(name, "sh"):
		return name + "es"
	case strings.HasSuffix(name, "y") && len(name) > 1 && !isVowel(rune(name[len(name)-2])):
		return name[:len(name)-1] + "ies"
	default:
		return name + "s"
	}
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}
