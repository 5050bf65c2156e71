package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/foliodb/folio/pkg/filter"
	"github.com/foliodb/folio/pkg/model"
)

// parseValue infers a Value's kind from a CLI-supplied string: "M" and
// "R" are the marker and remove sentinels, "true"/"false" are bools,
// "@id" is a ref, anything that parses as a float is a number, and
// everything else is a string.
func parseValue(raw string) (model.Value, error) {
	switch raw {
	case "M":
		return model.Marker, nil
	case "R":
		return model.Remove, nil
	case "true":
		return model.BoolVal(true), nil
	case "false":
		return model.BoolVal(false), nil
	}
	if id, ok := strings.CutPrefix(raw, "@"); ok {
		if id == "" {
			return nil, fmt.Errorf("empty ref id in %q", raw)
		}
		return model.RefVal{Ref: model.NewRef(id)}, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return model.Num(f), nil
	}
	return model.StrVal(raw), nil
}

// parseSets converts a list of "name=value" strings into a Diff's
// Changes map.
func parseSets(sets []string) (map[string]model.Value, error) {
	changes := make(map[string]model.Value, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", s)
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		changes[name] = v
	}
	return changes, nil
}

// parseFilter builds a Filter from a comma-separated list of
// predicates, each either a bare tag name (Has) or "name=value" (Eq).
// An empty expr matches every record, since "id" is present on every
// cached record.
func parseFilter(expr string) (filter.Filter, error) {
	var preds []filter.Filter
	for _, p := range strings.Split(expr, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			preds = append(preds, filter.Has{Name: p})
			continue
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", p, err)
		}
		preds = append(preds, filter.Eq{Name: name, Value: v})
	}
	switch len(preds) {
	case 0:
		return filter.Has{Name: model.TagID}, nil
	case 1:
		return preds[0], nil
	default:
		return filter.And(preds), nil
	}
}
