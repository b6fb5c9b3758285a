// Package schema describes typed columns and coerces raw values into them.
//
// A Field is a column descriptor whose kind is stored in its metadata under
// "ftype". Coerce dispatches on that kind:
//
//	amount := schema.Decimal("amount", 10, 2, schema.TruncateDecimal())
//	v, err := amount.Coerce("12.345") // decimal 12.34 (half-even)
//
// A Schema is an ordered, immutable set of Fields. Schemas can be built from
// Fields, from (name, kind, metadata) triples, or from the YAML dict form:
//
//	id:
//	  ftype: integer
//	  required: true
//	name:
//	  ftype: string
//
// Blank values (nil, "", NaN) coerce to the field's null sentinel, which is
// "" for strings and nil for every other kind. false and 0 are not blank.
package schema
