// Package field handles references to single elements of vector-valued
// branches, written as name[index] in configurations and selections.
package field

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Ref names element Index of the per-event vector stored in branch Name.
// A negative Index counts from the end of the vector.
type Ref struct {
	Name  string
	Index int
}

// FlatName is the name of the scalar column holding the flattened values.
func (r Ref) FlatName() string {
	return FlatName(r.Name, r.Index)
}

func (r Ref) String() string {
	return r.Name + "[" + strconv.Itoa(r.Index) + "]"
}

// FlatName returns the scalar column name for element idx of name, e.g.
// jet_pt_0 or jet_pt_-1.
func FlatName(name string, idx int) string {
	return name + "_" + strconv.Itoa(idx)
}

var refPattern = regexp.MustCompile(`^\s*([^\s\[\]]+)\s*\[\s*\+?(-?\d+)\s*\]\s*$`)

// ParseRef recognises name[index]. Entries without a subscript are not refs.
func ParseRef(s string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return Ref{}, false
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return Ref{}, false
	}
	return Ref{Name: m[1], Index: idx}, true
}

// Indices maps a vector branch to the set of element indices requested from it.
type Indices map[string][]int

// Add records idx for name, keeping the set sorted and unique.
func (ix Indices) Add(name string, idx int) {
	set := ix[name]
	i := sort.SearchInts(set, idx)
	if i < len(set) && set[i] == idx {
		return
	}
	set = append(set, 0)
	copy(set[i+1:], set[i:])
	set[i] = idx
	ix[name] = set
}

// Refs lists every (name, index) pair, ordered by name then index.
func (ix Indices) Refs() []Ref {
	names := make([]string, 0, len(ix))
	for name := range ix {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []Ref
	for _, name := range names {
		for _, idx := range ix[name] {
			refs = append(refs, Ref{Name: name, Index: idx})
		}
	}
	return refs
}

// Resolve rewrites every name[index] entry of names to its bare name and
// returns the rewritten list with the indices found. The input is not
// modified.
func Resolve(names []string) ([]string, Indices) {
	out := make([]string, len(names))
	ix := Indices{}
	for i, name := range names {
		ref, ok := ParseRef(name)
		if !ok {
			out[i] = strings.TrimSpace(name)
			continue
		}
		out[i] = ref.Name
		ix.Add(ref.Name, ref.Index)
	}
	return out, ix
}

// Unique drops repeated names, keeping the first occurrence.
func Unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
