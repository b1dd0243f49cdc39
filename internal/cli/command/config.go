package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recordsvc/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI configuration file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective settings (secret masked)",
				Action: configShow,
			},
			{
				Name:   "save",
				Usage:  "Write the effective settings to the config file",
				Action: configSave,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	return render(c, settingsFrom(c).Masked())
}

func configSave(c *cli.Context) error {
	s := settingsFrom(c)
	cfg := s.CLIConfig
	cfg.Output = string(s.Format)
	if err := config.Save(&cfg, s.ConfigPath); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration saved to %s\n", s.ConfigPath)
	return nil
}

func configPath(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, settingsFrom(c).ConfigPath)
	return err
}
