// Package logger provides structured logging for recordsvc.
//
// The Logger interface has two backends:
//
//   - logger.go: log/slog JSON or text handler (default)
//   - zap.go: go.uber.org/zap production encoder
//   - context.go: context propagation of loggers and request IDs
//   - redact.go: sensitive data redaction shared by both backends
//
// Both backends share one dynamic level, so SetLevel adjusts every logger
// built by New at runtime (used by the config hot reload).
package logger
