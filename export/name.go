package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"cbe/config"
)

// Values holds variables available for output name template expansion.
type Values struct {
	Title  string
	Slug   string
	Name   string
	Ext    string
	Blocks int
}

// NewValues prepares template values for document title and source name.
func NewValues(title, source, ext string, blocks int) Values {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if source == "" {
		name = ""
	}
	return Values{
		Title:  title,
		Slug:   slug.Make(title),
		Name:   name,
		Ext:    ext,
		Blocks: blocks,
	}
}

// OutputName expands file name template. Every path segment of the result is
// cleaned from characters not allowed in file names.
func OutputName(field string, values Values) (string, error) {
	tmpl, err := template.New(string(config.OutputNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", config.OutputNameTemplateFieldName, err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand template field %s: %w", config.OutputNameTemplateFieldName, err)
	}
	expanded := strings.TrimSpace(buf.String())
	if expanded == "" {
		return "", fmt.Errorf("template field %s expanded to empty name", config.OutputNameTemplateFieldName)
	}

	segments := strings.Split(filepath.ToSlash(expanded), "/")
	cleaned := segments[:0]
	for _, s := range segments {
		if s == "" {
			continue
		}
		cleaned = append(cleaned, config.CleanFileName(s))
	}
	return filepath.Join(cleaned...), nil
}
