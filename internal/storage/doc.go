// Package storage groups the record and API key storage backends.
//
// The memory subpackage is the only backend: records and keys live in
// process memory and are lost on restart. Ids are assigned by the store
// and never reused within a process lifetime.
package storage
