// Package output renders command results for recordsvc-cli.
//
// Three formats are available: aligned text tables (the default), indented
// JSON, and YAML. Values that know how to lay themselves out as rows
// implement Tabler; anything else is printed as FIELD/VALUE pairs.
package output
