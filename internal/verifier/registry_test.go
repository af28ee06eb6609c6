package verifier_test

import (
	"errors"
	"testing"

	"github.com/credentia/degreechain/internal/verifier"
)

func TestRegistry_defaults(t *testing.T) {
	r := verifier.NewRegistry(nil)

	name, err := r.Resolve("HEC")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Higher Education Commission" {
		t.Errorf("HEC: got %q", name)
	}

	name, err = r.Resolve("IBCC")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Inter Board Committee of Chairmen" {
		t.Errorf("IBCC: got %q", name)
	}
}

func TestRegistry_unknownCode(t *testing.T) {
	r := verifier.NewRegistry(nil)
	if _, err := r.Resolve("NOPE"); !errors.Is(err, verifier.ErrUnknownVerifier) {
		t.Errorf("expected ErrUnknownVerifier, got %v", err)
	}
}

func TestRegistry_customMapIsCopied(t *testing.T) {
	src := map[string]string{"ABC": "Accreditation Board of Colleges"}
	r := verifier.NewRegistry(src)
	src["ABC"] = "mutated"

	name, err := r.Resolve("ABC")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Accreditation Board of Colleges" {
		t.Errorf("registry must copy its input map, got %q", name)
	}
}
