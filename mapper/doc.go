// Package mapper applies field maps to a source table, producing a mapped
// table and an errors table.
//
// A FieldMap reads zero or more source columns and writes zero or more
// target columns. Its cardinality is fixed by the constructor used:
//
//	Copy(src, tgt)            1 -> 1, no transform
//	Scalar(src, tgt, fn)      1 -> 1
//	Combine(srcs, tgt, fn)    M -> 1
//	Split(srcs, tgts, fn)     1 -> M and M -> M
//	Consume(src, fn)          1 -> 0
//	Construct(tgt, fn)        0 -> 1
//
// Each map carries a RowHandler deciding what a failing row does: raise,
// catch, recode, warn or exclude. A row raises at most one error per map.
package mapper
