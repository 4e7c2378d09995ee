package shape

import "fmt"

// ResolveSelection maps a selection of exactly two meshes to (source, sculpted).
func ResolveSelection(selection []string) (string, string, error) {
	if len(selection) != 2 {
		return "", "", fmt.Errorf("%w (got %d)", ErrSelection, len(selection))
	}
	return selection[0], selection[1], nil
}

// WithSelection fills Source and Sculpted from selection when both are unset.
func (r *Request) WithSelection(selection []string) error {
	if r.Source != "" && r.Sculpted != "" {
		return nil
	}
	src, sculpted, err := ResolveSelection(selection)
	if err != nil {
		return err
	}
	r.Source, r.Sculpted = src, sculpted
	return nil
}
