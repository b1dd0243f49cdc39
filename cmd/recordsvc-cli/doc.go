// Package main provides the entry point for recordsvc-cli.
//
// recordsvc-cli lists, creates, updates and deletes records on a running
// recordsvc-server, checks its health, and generates API keys for the
// server configuration.
//
// Usage:
//
//	recordsvc-cli --server localhost:5080 record list
//	recordsvc-cli -o json record get 2
//	recordsvc-cli apikey generate --name ci --role editor
package main
