// Package confloader provides the configuration loading mechanism.
//
// Loader wraps koanf and merges sources in priority order (highest first):
//
//  1. Maps supplied by the caller (command-line flags, tests)
//  2. Environment variables (RECORDSVC_ prefix, "__" separates sections)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports writes to a configuration file via fsnotify so the server
// can reload settings that are safe to change at runtime.
package confloader
