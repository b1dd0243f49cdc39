// Package domain defines the core domain models for recordsvc.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Record: the tracked business entity (amounts, milestones, parties)
//   - APIKey: API access key for optional request authentication
//   - Errors: Domain-specific error definitions
//
// Records carry decimal amounts and optional milestone timestamps;
// an absent milestone is a nil pointer, never a sentinel date.
package domain
