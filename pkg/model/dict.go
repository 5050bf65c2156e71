package model

import "time"

// Reserved and well-known tag names.
const (
	TagID          = "id"
	TagMod         = "mod"
	TagTrash       = "trash"
	TagPoint       = "point"
	TagHis         = "his"
	TagAux         = "aux"
	TagUnit        = "unit"
	TagTZ          = "tz"
	TagDis         = "dis"
	TagDisMac      = "disMacro"
	TagHisSize     = "hisSize"
	TagHisStart    = "hisStart"
	TagHisStartVal = "hisStartVal"
	TagHisEnd      = "hisEnd"
	TagHisEndVal   = "hisEndVal"
)

// NeverTags are transient, history-summary tags patched directly into
// the cache. They are never persisted and never accepted as Diff
// changes (see HistoryStore).
var NeverTags = map[string]bool{
	TagHisSize:     true,
	TagHisStart:    true,
	TagHisStartVal: true,
	TagHisEnd:      true,
	TagHisEndVal:   true,
}

// Tag is one name/value pair of a Dict, kept in insertion order.
type Tag struct {
	Name  string
	Value Value
}

// Dict is an ordered name->value mapping. The zero Dict is empty and
// ready to use. Callers should treat a Dict handed back by the store
// as immutable; mutators (With*) return a new Dict.
type Dict struct {
	tags []Tag
	idx  map[string]int
}

// NewDict builds a Dict from name/value pairs in the given order.
func NewDict(tags ...Tag) Dict {
	d := Dict{}
	for _, t := range tags {
		d = d.WithSet(t.Name, t.Value)
	}
	return d
}

// Len returns the number of tags.
func (d Dict) Len() int { return len(d.tags) }

// Get returns the value of tag name and whether it was present.
func (d Dict) Get(name string) (Value, bool) {
	if d.idx == nil {
		return nil, false
	}
	i, ok := d.idx[name]
	if !ok {
		return nil, false
	}
	return d.tags[i].Value, true
}

// Has reports whether tag name is present, regardless of value.
func (d Dict) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// HasMarker reports whether tag name is present and is a marker.
func (d Dict) HasMarker(name string) bool {
	v, ok := d.Get(name)
	return ok && v.Kind() == KindMarker
}

// ID returns the "id" tag's ref, if present and well-formed.
func (d Dict) ID() (*Ref, bool) {
	v, ok := d.Get(TagID)
	if !ok {
		return nil, false
	}
	rv, ok := v.(RefVal)
	if !ok {
		return nil, false
	}
	return rv.Ref, true
}

// Mod returns the "mod" tag's timestamp, if present.
func (d Dict) Mod() (time.Time, bool) {
	v, ok := d.Get(TagMod)
	if !ok {
		return time.Time{}, false
	}
	dt, ok := v.(DateTimeVal)
	if !ok {
		return time.Time{}, false
	}
	return dt.Time, true
}

// IsTrash reports whether this record is soft-deleted.
func (d Dict) IsTrash() bool { return d.HasMarker(TagTrash) }

// WithSet returns a copy of d with name set to value. If name already
// exists its position (and prior value) is replaced in place;
// otherwise the tag is appended, preserving Trio's append-on-write
// convention for new tags.
func (d Dict) WithSet(name string, v Value) Dict {
	nd := d.clone()
	if i, ok := nd.idx[name]; ok {
		nd.tags[i].Value = v
		return nd
	}
	nd.idx[name] = len(nd.tags)
	nd.tags = append(nd.tags, Tag{Name: name, Value: v})
	return nd
}

// WithRemove returns a copy of d with name absent.
func (d Dict) WithRemove(name string) Dict {
	if !d.Has(name) {
		return d
	}
	nd := Dict{idx: make(map[string]int, len(d.tags))}
	for _, t := range d.tags {
		if t.Name == name {
			continue
		}
		nd.idx[t.Name] = len(nd.tags)
		nd.tags = append(nd.tags, t)
	}
	return nd
}

func (d Dict) clone() Dict {
	nd := Dict{
		tags: make([]Tag, len(d.tags)),
		idx:  make(map[string]int, len(d.tags)+1),
	}
	copy(nd.tags, d.tags)
	for k, v := range d.idx {
		nd.idx[k] = v
	}
	return nd
}

// Each calls f for every tag in insertion order, stopping early if f
// returns false.
func (d Dict) Each(f func(name string, v Value) bool) {
	for _, t := range d.tags {
		if !f(t.Name, t.Value) {
			return
		}
	}
}

// Names returns the tag names in insertion order.
func (d Dict) Names() []string {
	names := make([]string, len(d.tags))
	for i, t := range d.tags {
		names[i] = t.Name
	}
	return names
}

// Equal compares two dicts tag-for-tag, ignoring order.
func (d Dict) Equal(o Dict) bool {
	if d.Len() != o.Len() {
		return false
	}
	equal := true
	d.Each(func(name string, v Value) bool {
		ov, ok := o.Get(name)
		if !ok || !Equal(v, ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}
