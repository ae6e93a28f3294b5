// Package logger provides structured logging for bitsyflow applications
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("dispatch")
//	log.Info("flow dispatched", logger.Fields("flow", "search", "pods", 4))
package logger
