package shape

import "errors"

var (
	ErrMeshNotFound        = errors.New("mesh not found")
	ErrDeformerNotFound    = errors.New("blendshape deformer not found")
	ErrVertexCountMismatch = errors.New("vertex count mismatch")
	ErrSelection           = errors.New("make sure to have two meshes selected. no more. no less")
	ErrInvalidComponent    = errors.New("invalid component")
	ErrNameInUse           = errors.New("target name already in use")

	// ErrOffsetLength means the host returned component and point lists of
	// different lengths for the same target.
	ErrOffsetLength = errors.New("vertex/offset length mismatch")
)
