// Package catalog loads the role catalog copied onto every new event.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"go-event-roster/modules/event/entity"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type file struct {
	Roles entity.RoleCatalog `yaml:"roles"`
}

// Default returns the built-in catalog.
func Default() entity.RoleCatalog {
	roles, err := parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded role catalog: %v", err))
	}
	return roles
}

// Load reads the catalog from path, or returns Default when path is empty.
func Load(path string) (entity.RoleCatalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role catalog %s: %w", path, err)
	}
	roles, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse role catalog %s: %w", path, err)
	}
	if len(roles) == 0 {
		return Default(), nil
	}
	return roles, nil
}

func parse(data []byte) (entity.RoleCatalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := Validate(f.Roles); err != nil {
		return nil, err
	}
	return f.Roles, nil
}

// Validate rejects catalogs with duplicate or empty role or sub-role names.
func Validate(roles entity.RoleCatalog) error {
	seen := make(map[string]bool, len(roles))
	for _, role := range roles {
		if role.Name == "" {
			return fmt.Errorf("role with empty name")
		}
		if seen[role.Name] {
			return fmt.Errorf("duplicate role %q", role.Name)
		}
		seen[role.Name] = true
		subs := make(map[string]bool, len(role.SubRoles))
		for _, sub := range role.SubRoles {
			if sub.Name == "" {
				return fmt.Errorf("role %q has a sub-role with empty name", role.Name)
			}
			if subs[sub.Name] {
				return fmt.Errorf("role %q declares sub-role %q twice", role.Name, sub.Name)
			}
			subs[sub.Name] = true
		}
	}
	return nil
}
