// Package service provides domain services for recordsvc.
//
// Domain services contain the business rules and orchestrate operations on
// domain models. They define interfaces for their storage dependencies so
// the HTTP layer and tests can inject any implementation.
//
// This package contains:
//
//   - RecordService: record CRUD with validation and id consistency checks
//   - AuthService: API key authentication, authorization, and rate limiting
//
// Services hold no per-request state and are safe for concurrent use.
package service
