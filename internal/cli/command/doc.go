// Package command defines the recordsvc-cli command tree on urfave/cli/v2.
//
// Commands resolve connection settings from flags, RECORDSVC_* variables
// and the CLI config file, call the server through the connection package,
// and print results with the output package.
package command
