package scene

import (
	"sort"

	"github.com/binzume/shapebuilder/shape"
)

// Extras come either from JSON (float64, []interface{}) or from this package.

func stringsExtra(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		var r []string
		for _, e := range list {
			s, _ := e.(string)
			r = append(r, s)
		}
		return r
	}
	return nil
}

func intsExtra(v interface{}) []int {
	switch list := v.(type) {
	case []int:
		return list
	case []interface{}:
		var r []int
		for _, e := range list {
			f, ok := floatExtra(e)
			if !ok {
				return nil
			}
			r = append(r, int(f))
		}
		return r
	}
	return nil
}

func floatExtra(v interface{}) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	}
	return 0, false
}

func combinationExtra(v interface{}) (*shape.CombinationRule, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	output, ok := floatExtra(m["output"])
	if !ok {
		return nil, false
	}
	method, _ := floatExtra(m["method"])
	drivers := intsExtra(m["drivers"])
	if drivers == nil {
		drivers = []int{}
	}
	return &shape.CombinationRule{Output: int(output), Drivers: drivers, Method: shape.CombineMethod(method)}, true
}

func sortTargets(bs *BlendShape) {
	sort.Slice(bs.Targets, func(i, j int) bool { return bs.Targets[i].Index < bs.Targets[j].Index })
}
