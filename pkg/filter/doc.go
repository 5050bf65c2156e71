/*
Package filter defines the black-box predicate interface RecordStore
evaluates candidate records against, a small reference implementation
of that predicate language (has/eq/and/or/not), and the query
planner's shape detector: a textual scan of a filter's String() form
that recognizes a bare "has(tag)" predicate so the planner can resolve
it against a tag index instead of scanning the whole cache.
*/
package filter
