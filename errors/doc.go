// Package errors provides the structured error type shared by every flowkit
// package. Each failure carries a machine-readable code from the pipeline
// error taxonomy (coercion, required values, missing fields, DAG validation,
// uncaught mapping errors, malformed tabular literals) plus the pipe, subject,
// row and field it concerns when those are known.
package errors
