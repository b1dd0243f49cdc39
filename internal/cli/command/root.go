package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recordsvc/internal/cli/config"
	"github.com/yndnr/recordsvc/internal/cli/connection"
	"github.com/yndnr/recordsvc/internal/cli/output"
	"github.com/yndnr/recordsvc/internal/infra/buildinfo"
	"github.com/yndnr/recordsvc/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "recordsvc-cli",
		Usage:   "Manage records on a recordsvc server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RecordCommand(),
			SystemCommand(),
			APIKeyCommand(),
			ConfigCommand(),
		},
		Metadata: map[string]any{},
		Before: func(c *cli.Context) error {
			s, err := resolveSettings(c)
			if err != nil {
				return err
			}
			c.App.Metadata[settingsKey] = s
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"RECORDSVC_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (e.g. localhost:5080 or https://records.example.com)",
			EnvVars: []string{"RECORDSVC_SERVER"},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "Path prefix of the records routes (e.g. /api)",
			EnvVars: []string{"RECORDSVC_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "api-key-id",
			Aliases: []string{"k"},
			Usage:   "API Key ID for authentication",
			EnvVars: []string{"RECORDSVC_API_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API Key secret for authentication",
			EnvVars: []string{"RECORDSVC_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle trusted in addition to the system roots",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
	}
}

// Settings is the effective connection and output configuration.
type Settings struct {
	config.CLIConfig
	ConfigPath string
	Format     output.Format
}

// resolveSettings layers explicitly set flags over the config file.
func resolveSettings(c *cli.Context) (*Settings, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load cli config: %w", err)
	}

	strs := map[string]*string{
		"server":     &cfg.Server,
		"prefix":     &cfg.Prefix,
		"api-key-id": &cfg.APIKeyID,
		"api-key":    &cfg.APIKey,
		"output":     &cfg.Output,
		"ca-file":    &cfg.CAFile,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("insecure") {
		cfg.Insecure = c.Bool("insecure")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &Settings{CLIConfig: *cfg, ConfigPath: path, Format: format}, nil
}

// settingsFrom returns the settings resolved by the Before hook.
func settingsFrom(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{CLIConfig: *config.Default(), Format: output.FormatTable}
}

// newClient builds the HTTP client for the configured server.
func newClient(c *cli.Context) (*connection.HTTPClient, error) {
	s := settingsFrom(c)

	opts := connection.Options{
		Server:   s.Server,
		Prefix:   s.Prefix,
		APIKeyID: s.APIKeyID,
		APIKey:   s.APIKey,
		Timeout:  s.Timeout,
	}
	if s.CAFile != "" || s.Insecure {
		var caFiles []string
		if s.CAFile != "" {
			caFiles = append(caFiles, s.CAFile)
		}
		tlsCfg, err := tlsroots.ClientConfig(s.Insecure, caFiles...)
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = tlsCfg
	}
	return connection.NewHTTPClient(opts), nil
}

// render prints data in the selected output format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(settingsFrom(c).Format).Format(c.App.Writer, data)
}

// requestTimeout bounds a command's requests.
func requestTimeout(c *cli.Context) time.Duration {
	if t := settingsFrom(c).Timeout; t > 0 {
		return t
	}
	return connection.DefaultTimeout
}
