// Package selection parses event selections such as
// "pt > 20 and abs(jet_eta[0]) < 2.5", lists the branches they use and
// evaluates them column-wise against a table.
package selection

import (
	"strings"
)

// Identifiers returns the distinct identifiers used by src in order of
// first appearance. Vector subscripts are kept: "jet_pt[0] > 5" gives
// "jet_pt[0]". An empty selection has no identifiers.
func Identifiers(src string) ([]string, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}

	ids := Idents(e)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Text()
	}
	return out, nil
}

// Combine joins the global selection with a per-process one. When the
// process selection starts with a connective ("and x > 1") the two are
// concatenated as written, otherwise they are joined with "and".
func Combine(global, local string) string {
	global = strings.TrimSpace(global)
	local = strings.TrimSpace(local)
	switch {
	case global == "":
		return trimConnective(local)
	case local == "":
		return global
	case startsWithConnective(local):
		return global + " " + local
	}
	return "(" + global + ") and (" + local + ")"
}

func startsWithConnective(s string) bool {
	return trimConnective(s) != s
}

// trimConnective removes a leading and/or connective, however it is
// separated from the rest of the selection.
func trimConnective(s string) string {
	l := newLexer(s)
	tok, err := l.next()
	if err != nil || (tok.Kind != AND && tok.Kind != OR) {
		return s
	}
	return strings.TrimSpace(s[l.pos:])
}
