// Package logger provides structured logging for flowkit using zerolog.
//
// A process-wide logger is initialized once with Init. Packages never hold a
// direct reference to it; they acquire a component-scoped logger by name:
//
//	log := logger.Get("scheduler")
//	log.Info("node completed", logger.Fields("node", "extract.run"))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
