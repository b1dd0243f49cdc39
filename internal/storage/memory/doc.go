// Package memory provides in-memory storage for recordsvc.
//
// RecordStore keeps every record in process memory: an ordered slice
// preserves insertion order for listing and an id index gives constant-time
// lookup. A monotonic counter assigns ids, so ids are strictly increasing and
// never reused after a delete.
//
// Thread Safety:
//
// A single RWMutex guards the slice, the index and the counter. Records are
// cloned on the way in and on the way out; callers never share memory with
// the store.
//
// APIKeyStore holds the API keys provisioned from configuration.
package memory
