// Package recipefile reads and writes recipes as YAML documents.
//
// A file holds one recipe per YAML document; several recipes can share a
// file separated by "---":
//
//	title: Pâtes carbonara
//	servings: 4
//	ingredients:
//	  - name: spaghetti
//	    quantity: "400"
//	    unit: g
//	steps:
//	  - instruction: Cuire les pâtes
//	    duration: 10 min
package recipefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gustalya/gustalya/internal/domain"
)

// LoadError describes a recipe file that could not be used.
type LoadError struct {
	File     string
	Document int
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Document > 0 {
		fmt.Fprintf(&b, "document %d: ", e.Document)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes every recipe document in data. Empty documents are skipped.
// Each recipe gets a fresh id unless the document carries one.
func Parse(data []byte) ([]domain.Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var recipes []domain.Recipe
	for doc := 1; ; doc++ {
		var r domain.Recipe
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Document: doc, Message: "failed to parse YAML", Cause: err}
		}
		if r.Title == "" && len(r.Steps) == 0 && len(r.Ingredients) == 0 {
			continue
		}

		fresh := domain.NewRecipe(r.ID, r.OwnerID, r.Title, r.Steps)
		fresh.Description = strings.TrimSpace(r.Description)
		fresh.Category = strings.TrimSpace(r.Category)
		fresh.Servings = r.Servings
		fresh.Ingredients = r.Ingredients
		if err := fresh.Validate(); err != nil {
			return nil, &LoadError{Document: doc, Message: "invalid recipe", Cause: err}
		}
		recipes = append(recipes, *fresh)
	}
	return recipes, nil
}

// LoadFile parses the recipes stored in path.
func LoadFile(path string) ([]domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	recipes, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return recipes, nil
}

// Load accepts a file or a directory. Only .yaml and .yml files of a
// directory are read, in name order, without recursion.
func Load(path string) ([]domain.Recipe, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to stat path", Cause: err}
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read directory", Cause: err}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var recipes []domain.Recipe
	for _, name := range names {
		loaded, err := LoadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, loaded...)
	}
	return recipes, nil
}

// Encode writes recipes as a multi-document YAML stream.
func Encode(w io.Writer, recipes []domain.Recipe) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for i := range recipes {
		if err := enc.Encode(&recipes[i]); err != nil {
			return fmt.Errorf("encode recipe %q: %w", recipes[i].Title, err)
		}
	}
	return enc.Close()
}

// SaveFile writes recipes to path, creating parent directories.
func SaveFile(path string, recipes []domain.Recipe) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create recipe directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, recipes); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write recipe file: %w", err)
	}
	return nil
}
