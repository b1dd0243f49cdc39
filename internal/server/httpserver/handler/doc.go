// Package handler provides HTTP request handlers for recordsvc.
//
//   - record.go: Record CRUD endpoints
//   - health.go: Health and readiness checks
//   - types.go: Request/response payloads and the error envelope
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the record service
//   - Encode the result (records are returned bare, errors in an envelope)
package handler
