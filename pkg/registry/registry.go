// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agri-advisor/internal/common/validation"
)

func LoadRegistry(path string) (*BindingRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

var compiledSchema = validation.MustCompile(bindingSchema)

// Parse decodes a binding file and validates the raw document, so misspelled
// or unknown keys are rejected rather than silently dropped.
func Parse(data []byte) (*BindingRegistry, error) {
	var reg BindingRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse binding registry: %w", err)
	}
	if err := checkSchema(string(data)); err != nil {
		return nil, err
	}
	if err := reg.checkUnique(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks r against the binding schema and the cross-item rules.
func (r *BindingRegistry) Validate() error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := checkSchema(string(data)); err != nil {
		return err
	}
	return r.checkUnique()
}

func checkSchema(document string) error {
	result, err := compiledSchema.ValidateJSON(document)
	if err != nil {
		return fmt.Errorf("invalid binding registry: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("invalid binding registry: %s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func (r *BindingRegistry) checkUnique() error {
	seen := make(map[string]bool, len(r.Bindings))
	for _, b := range r.Bindings {
		if seen[b.Category] {
			return fmt.Errorf("binding %q: duplicate category", b.Category)
		}
		seen[b.Category] = true

		names := make(map[string]bool, len(b.Calls))
		for _, c := range b.Calls {
			if names[c.Name] {
				return fmt.Errorf("binding %q: duplicate call name %q", b.Category, c.Name)
			}
			names[c.Name] = true
		}
	}
	return nil
}

// Find returns the binding for category.
func (r *BindingRegistry) Find(category string) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Category == category {
			return b, true
		}
	}
	return Binding{}, false
}

//go:embed default_bindings.json
var defaultBindings []byte

// Default returns the built-in bindings.
func Default() *BindingRegistry {
	reg, err := Parse(defaultBindings)
	if err != nil {
		panic(fmt.Sprintf("built-in bindings are invalid: %v", err))
	}
	return reg
}

// SaveRegistry validates reg and writes it to path as indented JSON.
func SaveRegistry(reg *BindingRegistry, path string) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
