// Package pipes provides the canonical pipes most graphs are assembled from.
//
// Every pipe here follows the port naming conventions of the framework:
// single-input pipes read source "main", single-output pipes write target
// "main", and pipes that route row failures write them to target "errors"
// using the mapper errors table layout. Source pipes bring data into a graph
// through an Extractor; Target pipes hand it to a Loader and publish what the
// loader reported on "load_response".
package pipes

// Canonical port names.
const (
	Main         = "main"
	Errors       = "errors"
	LookupPort   = "lookup"
	LoadResponse = "load_response"
)
