package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()
	if p.ReserveName != "Reserves" {
		t.Fatalf("ReserveName = %q", p.ReserveName)
	}
	inf := p.Kind("Infantry")
	if inf.DefaultSize != 6 || len(inf.Rules) == 0 {
		t.Fatalf("Infantry = %+v", inf)
	}
	if !inf.Rules[len(inf.Rules)-1].Matches("Infantry", "") {
		t.Fatal("Infantry catch-all rule missing")
	}
}

func TestUnknownKindFallsBackToRoleName(t *testing.T) {
	k := Default().Kind("Logistics")
	if len(k.Rules) != 1 || !k.Rules[0].Matches("Logistics", "Driver") {
		t.Fatalf("fallback = %+v", k)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	rolesOnly := filepath.Join(dir, "roles.yaml")
	os.WriteFile(rolesOnly, []byte("roles:\n  - name: Commander\n"), 0o600)
	p, err := Load(rolesOnly)
	if err != nil || len(p.Kinds) != len(Default().Kinds) {
		t.Fatalf("file without squad_policy = %+v, %v; want default", p, err)
	}

	custom := filepath.Join(dir, "custom.yaml")
	os.WriteFile(custom, []byte("squad_policy:\n  kinds:\n    - kind: Air\n      default_size: 2\n      rules:\n        - {role: Pilot}\n"), 0o600)
	p, err = Load(custom)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ReserveName != DefaultReserveName || p.Kind("Air").DefaultSize != 2 {
		t.Fatalf("custom = %+v", p)
	}

	dup := filepath.Join(dir, "dup.yaml")
	os.WriteFile(dup, []byte("squad_policy:\n  kinds:\n    - kind: Air\n    - kind: Air\n"), 0o600)
	if _, err := Load(dup); err == nil {
		t.Fatal("duplicate kinds accepted")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
