// Package policy describes how squads of each kind are filled.
package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

const DefaultReserveName = "Reserves"

// Rule matches attendees by primary role and, optionally, sub-role. Limit
// caps matches per squad; zero means no cap.
type Rule struct {
	Role    string `yaml:"role"`
	SubRole string `yaml:"sub_role,omitempty"`
	Limit   int    `yaml:"limit,omitempty"`
}

func (r Rule) Matches(primaryRole, subRole string) bool {
	if r.Role != primaryRole {
		return false
	}
	return r.SubRole == "" || r.SubRole == subRole
}

type Kind struct {
	Kind        string `yaml:"kind"`
	DefaultSize int    `yaml:"default_size"`
	Rules       []Rule `yaml:"rules"`
}

type Policy struct {
	ReserveName string `yaml:"reserve_name"`
	Kinds       []Kind `yaml:"kinds"`
}

type file struct {
	Policy *Policy `yaml:"squad_policy"`
}

// Kind returns the rules for kind. Kinds without an entry take any attendee
// whose primary role has the kind's name.
func (p *Policy) Kind(kind string) Kind {
	for _, k := range p.Kinds {
		if k.Kind == kind {
			return k
		}
	}
	return Kind{Kind: kind, Rules: []Rule{{Role: kind}}}
}

// Default returns the built-in policy.
func Default() *Policy {
	p, err := parse(defaultYAML)
	if err != nil || p == nil {
		panic(fmt.Sprintf("embedded squad policy: %v", err))
	}
	return p
}

// Load reads the squad_policy section of the file at path. An empty path or
// a file without that section yields Default.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read squad policy %s: %w", path, err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse squad policy %s: %w", path, err)
	}
	if p == nil {
		return Default(), nil
	}
	return p, nil
}

func parse(data []byte) (*Policy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Policy == nil {
		return nil, nil
	}
	if err := f.Policy.Validate(); err != nil {
		return nil, err
	}
	if f.Policy.ReserveName == "" {
		f.Policy.ReserveName = DefaultReserveName
	}
	return f.Policy, nil
}

func (p *Policy) Validate() error {
	seen := make(map[string]bool, len(p.Kinds))
	for _, k := range p.Kinds {
		if k.Kind == "" {
			return fmt.Errorf("squad kind without a name")
		}
		if seen[k.Kind] {
			return fmt.Errorf("duplicate squad kind %q", k.Kind)
		}
		seen[k.Kind] = true
		if k.DefaultSize < 0 {
			return fmt.Errorf("squad kind %q: negative default size", k.Kind)
		}
		for _, r := range k.Rules {
			if r.Role == "" {
				return fmt.Errorf("squad kind %q: rule without a role", k.Kind)
			}
			if r.Limit < 0 {
				return fmt.Errorf("squad kind %q: negative limit", k.Kind)
			}
		}
	}
	return nil
}
