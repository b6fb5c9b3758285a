// Package component manages the lifecycle of resources shared by pipes,
// such as SQL engines backing SQL subjects.
//
// Components are started in registration order before a graph runs and
// stopped in reverse order afterwards.
package component
