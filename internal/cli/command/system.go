package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recordsvc/internal/cli/connection"
	"github.com/yndnr/recordsvc/internal/cli/output"
	"github.com/yndnr/recordsvc/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check readiness and show the server build",
				Action: systemReady,
			},
		},
	}
}

type healthView struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Target    string `json:"target" yaml:"target"`
}

type readyView struct {
	Status    string         `json:"status" yaml:"status"`
	Timestamp string         `json:"timestamp" yaml:"timestamp"`
	Build     buildinfo.Info `json:"build" yaml:"build"`
}

// Table implements output.Tabler.
func (r *readyView) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("status", r.Status)
	t.AddRow("timestamp", output.FormatValue(r.Timestamp))
	t.AddRow("version", output.FormatValue(r.Build.Version))
	t.AddRow("commit", output.FormatValue(r.Build.Commit))
	t.AddRow("build_time", output.FormatValue(r.Build.BuildTime))
	t.AddRow("go_version", output.FormatValue(r.Build.GoVersion))
	return t
}

func systemHealth(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	result := healthView{Target: client.BaseURL()}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if settingsFrom(c).Format != output.FormatTable {
		return render(c, result)
	}
	if strings.EqualFold(result.Status, "healthy") {
		fmt.Fprintf(c.App.Writer, "✓ Server is healthy\n  Target: %s\n", result.Target)
		return nil
	}
	return fmt.Errorf("server is unhealthy: %s", result.Status)
}

func systemReady(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/ready")
	if err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}

	var result readyView
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, &result)
}
