package domain_test

import (
	"testing"

	"go.trai.ch/envup/internal/core/domain"
)

func TestGenerateEnvID_Deterministic(t *testing.T) {
	tools := map[string]string{"python": "python@3.12", "gecko": "geckodriver@0.34.0"}
	id1 := domain.GenerateEnvID(tools)
	id2 := domain.GenerateEnvID(tools)
	if id1 != id2 {
		t.Errorf("GenerateEnvID() not deterministic: %s != %s", id1, id2)
	}
}

func TestGenerateEnvID_EmptyMap(t *testing.T) {
	id1 := domain.GenerateEnvID(map[string]string{})
	if len(id1) != 64 {
		t.Errorf("GenerateEnvID() length = %d, want 64", len(id1))
	}
	// sha256("") = e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
	if id1 != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("GenerateEnvID() empty map hash changed: %s", id1)
	}
}

func TestGenerateEnvID_OrderIndependent(t *testing.T) {
	tools1 := map[string]string{"python": "python@3.12", "gecko": "geckodriver@0.34.0"}
	tools2 := map[string]string{"gecko": "geckodriver@0.34.0", "python": "python@3.12"}
	if domain.GenerateEnvID(tools1) != domain.GenerateEnvID(tools2) {
		t.Error("GenerateEnvID() not order independent")
	}
}

func TestGenerateEnvID_DifferentTools(t *testing.T) {
	tools1 := map[string]string{"python": "python@3.12"}
	tools2 := map[string]string{"python": "python@3.11"}
	if domain.GenerateEnvID(tools1) == domain.GenerateEnvID(tools2) {
		t.Error("GenerateEnvID() produced same hash for different tools")
	}
}
