package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"go-event-roster/modules/event/entity"
)

func TestDefaultCatalog(t *testing.T) {
	roles := Default()

	infantry, ok := roles.Find("Infantry")
	if !ok {
		t.Fatal("Infantry missing from default catalog")
	}
	rifleman, ok := infantry.FindSubRole("Rifleman")
	if !ok {
		t.Fatal("Rifleman missing under Infantry")
	}
	if rifleman.Glyph == "" {
		t.Fatal("Rifleman glyph is empty")
	}

	commander, ok := roles.Find("Commander")
	if !ok {
		t.Fatal("Commander missing from default catalog")
	}
	if commander.HasSubRoles() {
		t.Fatalf("Commander sub-roles = %d, want 0", len(commander.SubRoles))
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
roles:
  - name: Pilot
    glyph: P
    required_credential: pilots
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	roles, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "Pilot" || roles[0].RequiredCredential != "pilots" {
		t.Fatalf("roles = %+v, want single gated Pilot", roles)
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		roles entity.RoleCatalog
	}{
		{"duplicate role", entity.RoleCatalog{{Name: "A"}, {Name: "A"}}},
		{"empty role", entity.RoleCatalog{{Name: ""}}},
		{"duplicate sub-role", entity.RoleCatalog{{Name: "A", SubRoles: []entity.SubRoleEntry{{Name: "x"}, {Name: "x"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.roles); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}
