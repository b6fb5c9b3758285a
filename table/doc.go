// Package table is the canonical in-memory tabular form exchanged between
// subjects, mappers and test fixtures.
//
// A Table is column-major with ordered columns. Every row carries an index
// label; filtering and slicing keep the labels, so a row can always be traced
// back to its position in the original input.
//
// ParseLiteral reads the pipe-delimited fixture format:
//
//	| id | name  |
//	| -  | -     |
//	| 1  | one   |   # trailing comments are ignored
//	| 2  |       |
package table
