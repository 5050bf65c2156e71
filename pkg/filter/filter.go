package filter

import (
	"fmt"
	"strings"

	"github.com/foliodb/folio/pkg/model"
)

// Filter is the black-box predicate RecordStore evaluates against a
// candidate record. Implementations outside this package (a full
// tag-query language parser) are expected; this package only supplies
// a reference implementation sufficient for tests and the CLI's
// ad-hoc queries.
type Filter interface {
	Matches(d model.Dict) bool
	String() string
}

// Has matches any record carrying tag Name, regardless of value.
type Has struct{ Name string }

func (h Has) Matches(d model.Dict) bool { return d.Has(h.Name) }
func (h Has) String() string            { return h.Name }

// Eq matches a record whose tag Name equals Value.
type Eq struct {
	Name  string
	Value model.Value
}

func (e Eq) Matches(d model.Dict) bool {
	v, ok := d.Get(e.Name)
	if !ok {
		return false
	}
	return model.Equal(v, e.Value)
}

func (e Eq) String() string { return fmt.Sprintf("%s==%s", e.Name, e.Value.String()) }

// And matches a record satisfying every one of its operands.
type And []Filter

func (a And) Matches(d model.Dict) bool {
	for _, f := range a {
		if !f.Matches(d) {
			return false
		}
	}
	return true
}

func (a And) String() string { return joinOperands(a, " and ") }

// Or matches a record satisfying at least one of its operands.
type Or []Filter

func (o Or) Matches(d model.Dict) bool {
	for _, f := range o {
		if f.Matches(d) {
			return true
		}
	}
	return false
}

func (o Or) String() string { return joinOperands(o, " or ") }

// Not negates its operand.
type Not struct{ Operand Filter }

func (n Not) Matches(d model.Dict) bool { return !n.Operand.Matches(d) }
func (n Not) String() string            { return "not " + n.Operand.String() }

func joinOperands(fs []Filter, sep string) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, sep)
}

// SimpleHasTag reports whether f's surface form is a single identifier
// with no spaces, operators, or parentheses — the shape the query
// planner resolves against a tag index (idx:tag:{name}) instead of
// falling back to a full cache scan.
func SimpleHasTag(f Filter) (tag string, ok bool) {
	s := f.String()
	if s == "" {
		return "", false
	}
	for i, r := range s {
		isLetter := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		isIdentChar := isLetter || isDigit || r == '_'
		if i == 0 && !isLetter {
			return "", false
		}
		if !isIdentChar {
			return "", false
		}
	}
	return s, true
}
