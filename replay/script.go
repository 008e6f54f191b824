// Package replay runs scripted editing sessions against a builder.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"cbe/archive"
)

// Name of the script inside bundle and the largest bundle entry accepted.
const (
	BundleScript   = "script.yaml"
	maxBundleEntry = 32 << 20
)

type (
	InsertStep struct {
		Type    string         `yaml:"type"`
		Index   int            `yaml:"index"`
		Options map[string]any `yaml:"options,omitempty"`
		Focus   bool           `yaml:"focus,omitempty"`
	}

	// TargetStep addresses block by index and optional text part.
	TargetStep struct {
		Index int    `yaml:"index"`
		Part  string `yaml:"part,omitempty"`
	}

	TypeStep struct {
		TargetStep `yaml:",inline"`
		Markup     string `yaml:"markup"`
	}

	SelectStep struct {
		TargetStep `yaml:",inline"`
		Start      int `yaml:"start"`
		End        int `yaml:"end"`
	}

	KeyStep struct {
		TargetStep `yaml:",inline"`
		Key        string `yaml:"key"`
	}

	DragStep struct {
		From int `yaml:"from"`
		To   int `yaml:"to"`
	}

	TableStep struct {
		Index  int     `yaml:"index"`
		Op     string  `yaml:"op"`
		From   int     `yaml:"from,omitempty"`
		To     int     `yaml:"to,omitempty"`
		Row    int     `yaml:"row,omitempty"`
		Col    int     `yaml:"col,omitempty"`
		Markup string  `yaml:"markup,omitempty"`
		Width  float64 `yaml:"width,omitempty"`
	}

	ListStep struct {
		Index  int    `yaml:"index"`
		Op     string `yaml:"op"`
		Path   []int  `yaml:"path"`
		Markup string `yaml:"markup,omitempty"`
	}

	UploadStep struct {
		Index int    `yaml:"index"`
		File  string `yaml:"file"`
		Alt   string `yaml:"alt,omitempty"`
	}

	SuggestStep struct {
		Query string `yaml:"query"`
		Pick  int    `yaml:"pick,omitempty"`
		Index int    `yaml:"index"`
	}

	// Step holds exactly one action.
	Step struct {
		Insert  *InsertStep  `yaml:"insert,omitempty"`
		Delete  *TargetStep  `yaml:"delete,omitempty"`
		Type    *TypeStep    `yaml:"type,omitempty"`
		Select  *SelectStep  `yaml:"select,omitempty"`
		Command string       `yaml:"command,omitempty"`
		Key     *KeyStep     `yaml:"key,omitempty"`
		Drag    *DragStep    `yaml:"drag,omitempty"`
		Table   *TableStep   `yaml:"table,omitempty"`
		List    *ListStep    `yaml:"list,omitempty"`
		Upload  *UploadStep  `yaml:"upload,omitempty"`
		Suggest *SuggestStep `yaml:"suggest,omitempty"`
	}

	Script struct {
		Title string `yaml:"title"`
		Steps []Step `yaml:"steps"`
		// Dir resolves relative upload file names, set by Load.
		Dir string `yaml:"-"`
		// files of the bundle script was loaded from
		files map[string][]byte
	}
)

// Kind names the action of the step.
func (s *Step) Kind() (string, error) {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(s.Insert != nil, "insert")
	add(s.Delete != nil, "delete")
	add(s.Type != nil, "type")
	add(s.Select != nil, "select")
	add(s.Command != "", "command")
	add(s.Key != nil, "key")
	add(s.Drag != nil, "drag")
	add(s.Table != nil, "table")
	add(s.List != nil, "list")
	add(s.Upload != nil, "upload")
	add(s.Suggest != nil, "suggest")

	switch len(kinds) {
	case 0:
		return "", errors.New("step has no action")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("step has more than one action: %v", kinds)
	}
}

// Parse decodes script, unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	for i := range s.Steps {
		if _, err := s.Steps[i].Kind(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &s, nil
}

// Load reads script from file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// LoadBundle reads script from zip archive holding BundleScript and files it
// uploads, upload file names are resolved inside the archive.
func LoadBundle(path string) (*Script, error) {
	files, err := archive.ReadFiles(path, maxBundleEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", path, err)
	}
	data, ok := files[BundleScript]
	if !ok {
		return nil, fmt.Errorf("bundle %s has no %s", path, BundleScript)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	delete(files, BundleScript)
	s.files = files
	return s, nil
}

// file returns upload data by name, bundle first.
func (s *Script) file(name string) ([]byte, error) {
	if s.files != nil {
		if data, ok := s.files[filepath.ToSlash(filepath.Clean(name))]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("bundle has no file %s", name)
	}
	if !filepath.IsAbs(name) && s.Dir != "" {
		name = filepath.Join(s.Dir, name)
	}
	return os.ReadFile(name)
}
