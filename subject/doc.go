// Package subject implements the ports pipes read from and write to.
//
// A Subject is a named, schema-bearing holder of a tabular payload owned by
// exactly one pipe. Linking a downstream subject to an upstream one is the
// only way payloads move through a graph; what a link means depends on the
// variant:
//
//   - Tabular shares the upstream *table.Table (or clones it when isolated)
//   - SQL adopts the upstream engine and table name, releasing its own engine
//   - Cluster adopts the upstream session and frame
//
// Links between different variants materialize the upstream payload through
// ToTable and write it with FromTable.
package subject
