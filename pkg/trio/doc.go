// Package trio implements the textual "Trio" dict encoding consumed
// by the record store as an opaque format: a writer that takes a
// model.Dict and an io.Writer, and a reader that takes an io.Reader
// and returns a model.Dict. The only contract the rest of the module
// relies on is Decode(Encode(d)) == d for every supported value kind;
// no particular byte layout is part of the public contract.
//
// The layout used here is a length-prefixed token stream rather than
// the line-oriented grammar Trio takes its name from, because nested
// dicts and lists need unambiguous boundaries without a host-supplied
// grammar to lean on. Every token is "<kind><byteLen>:<payload>", so a
// reader never has to guess where a value ends.
package trio
