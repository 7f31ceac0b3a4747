package filter

import "encoding/json"

// All is the wildcard option shown alongside the concrete values.
const All = "All"

// Selection is either All (the zero value) or a non-empty set of concrete
// values. The two never mix.
type Selection struct {
	values []string
}

func AllSelection() Selection { return Selection{} }

// Subset builds a concrete selection. Duplicates collapse, first occurrence
// keeps its position; an empty list yields All.
func Subset(values ...string) Selection {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == All {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return Selection{}
	}
	return Selection{values: out}
}

func (s Selection) IsAll() bool { return len(s.values) == 0 }

func (s Selection) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

func (s Selection) Matches(v string) bool {
	if s.IsAll() {
		return true
	}
	for _, x := range s.values {
		if x == v {
			return true
		}
	}
	return false
}

// MarshalJSON renders the selection the way a multi-select widget holds it.
func (s Selection) MarshalJSON() ([]byte, error) {
	if s.IsAll() {
		return json.Marshal([]string{All})
	}
	return json.Marshal(s.values)
}

// Reconcile turns a widget edit into the next selection:
//
//	[]                    -> All
//	[All]                 -> All
//	[All, x...] after All -> Subset(x...)  (a value was picked on top of All)
//	[All, x...] after x   -> All           (All was picked again)
//	[x...]                -> Subset(x...)
func Reconcile(prev Selection, edit []string) Selection {
	hasAll := false
	concrete := 0
	for _, v := range edit {
		if v == All {
			hasAll = true
		} else {
			concrete++
		}
	}
	switch {
	case concrete == 0:
		return AllSelection()
	case hasAll && !prev.IsAll():
		return AllSelection()
	default:
		return Subset(edit...)
	}
}
