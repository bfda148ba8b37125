package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/ohler55/ojg/jp"
)

// fieldPattern restricts query field names to dotted identifiers. The same
// names are turned into SQLite JSON paths, so nothing else is accepted.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func validateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid query field %q", field)
	}
	return nil
}

type compiledFilter struct {
	path jp.Expr
	eq   any
}

type compiledSort struct {
	path jp.Expr
	desc bool
}

// matcher is a Query compiled to JSONPath expressions over Node.Fields.
type matcher struct {
	filters []compiledFilter
	sorts   []compiledSort
}

func compileQuery(q api.Query) (*matcher, error) {
	m := &matcher{}
	for _, f := range q.Filter {
		x, err := fieldPath(f.Field)
		if err != nil {
			return nil, err
		}
		m.filters = append(m.filters, compiledFilter{path: x, eq: f.Eq})
	}
	for i, field := range q.Sort.Fields {
		x, err := fieldPath(field)
		if err != nil {
			return nil, err
		}
		desc := i < len(q.Sort.Order) && q.Sort.Order[i] == api.Desc
		m.sorts = append(m.sorts, compiledSort{path: x, desc: desc})
	}
	return m, nil
}

func fieldPath(field string) (jp.Expr, error) {
	if err := validateField(field); err != nil {
		return nil, err
	}
	x, err := jp.ParseString("$." + field)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath for field %q: %w", field, err)
	}
	return x, nil
}

func (m *matcher) match(n *Node) bool {
	for _, f := range m.filters {
		if !containsValue(f.path.First(n.Fields), f.eq) {
			return false
		}
	}
	return true
}

// sort orders nodes by the compiled sort keys, falling back to ID so the
// order is total and identical across backends.
func (m *matcher) sort(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		for _, s := range m.sorts {
			c := compareValues(s.path.First(nodes[i].Fields), s.path.First(nodes[j].Fields))
			if c == 0 {
				continue
			}
			if s.desc {
				return c > 0
			}
			return c < 0
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// containsValue implements eq: scalar equality, or element membership when
// the field holds an array.
func containsValue(field, want any) bool {
	if arr, ok := field.([]any); ok {
		for _, e := range arr {
			if equalValues(e, want) {
				return true
			}
		}
		return false
	}
	if arr, ok := field.([]string); ok {
		for _, e := range arr {
			if equalValues(e, want) {
				return true
			}
		}
		return false
	}
	return equalValues(field, want)
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders nil first, then numbers, then strings, then anything
// else by its printed form. SQLite orders NULL before numbers before text,
// which this mirrors.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		return 0
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}
