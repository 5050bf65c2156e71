// Package model defines the tagged-union record model shared by the
// store and history packages: Ref, Dict, Value, Diff and HisItem.
//
// Nothing in this package talks to Redis or knows about caching; it is
// the vocabulary the rest of the module is written in.
package model
