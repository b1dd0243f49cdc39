// Package buildinfo exposes the version of the running binary.
//
// Release builds inject values via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/recordsvc/internal/infra/buildinfo.Version=v1.0.0"
//
// Values left unset fall back to the module build information embedded by
// the Go toolchain (VCS revision and time) and to runtime.Version.
package buildinfo
