package shape

import (
	"fmt"
	"log"
)

// Invert creates the rest-space mesh for a sculpt posed on source and assigns
// it the default material. No mesh is left behind on failure.
func Invert(h MeshHost, source, sculpted string) (string, error) {
	if source == "" || sculpted == "" || source == sculpted {
		return "", fmt.Errorf("%w: source=%q sculpted=%q", ErrSelection, source, sculpted)
	}
	for _, name := range []string{source, sculpted} {
		if !h.HasMesh(name) {
			return "", fmt.Errorf("%w: %q", ErrMeshNotFound, name)
		}
	}
	inverted, err := h.InvertShape(source, sculpted)
	if err != nil {
		return "", fmt.Errorf("invert %q onto %q: %w", sculpted, source, err)
	}
	if err := h.AssignDefaultMaterial(inverted); err != nil {
		if derr := h.DeleteMesh(inverted); derr != nil {
			log.Print("delete ", inverted, ": ", derr)
		}
		return "", err
	}
	return inverted, nil
}
