package shape

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var componentPattern = regexp.MustCompile(`^vtx\[(\d+)(?::(\d+))?\]$`)

// ParseComponent parses "vtx[N]" or "vtx[A:B]" (inclusive).
func ParseComponent(c string) (int, int, error) {
	m := componentPattern.FindStringSubmatch(c)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidComponent, c)
	}
	first, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidComponent, c)
	}
	last := first
	if m[2] != "" {
		if last, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidComponent, c)
		}
	}
	if last < first {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidComponent, c)
	}
	return first, last, nil
}

// ExpandComponentList flattens condensed components into vertex indices.
func ExpandComponentList(components []string) ([]int, error) {
	var indices []int
	for _, c := range components {
		first, last, err := ParseComponent(c)
		if err != nil {
			return nil, err
		}
		for i := first; i <= last; i++ {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// CondenseIndices packs vertex indices into the shortest run list.
func CondenseIndices(indices []int) []string {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	var components []string
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] <= sorted[j]+1 {
			j++
		}
		if sorted[i] == sorted[j] {
			components = append(components, fmt.Sprintf("vtx[%d]", sorted[i]))
		} else {
			components = append(components, fmt.Sprintf("vtx[%d:%d]", sorted[i], sorted[j]))
		}
		i = j + 1
	}
	return components
}
