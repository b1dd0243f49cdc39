package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/recordsvc/internal/cli/connection"
	"github.com/yndnr/recordsvc/internal/cli/output"
)

// recordView is a record as returned by the server.
type recordView struct {
	ID                       int64       `json:"id" yaml:"id"`
	Date                     time.Time   `json:"date" yaml:"date"`
	Name                     string      `json:"name" yaml:"name"`
	Alpha                    json.Number `json:"alpha" yaml:"alpha"`
	Beta                     json.Number `json:"beta" yaml:"beta"`
	Gamma                    json.Number `json:"gamma" yaml:"gamma"`
	Delta                    json.Number `json:"delta" yaml:"delta"`
	Milestone1StartDate      *time.Time  `json:"milestone1StartDate" yaml:"milestone1StartDate"`
	Milestone1CompletionDate *time.Time  `json:"milestone1CompletionDate" yaml:"milestone1CompletionDate"`
	Milestone2StartDate      *time.Time  `json:"milestone2StartDate" yaml:"milestone2StartDate"`
	Milestone2CompletionDate *time.Time  `json:"milestone2CompletionDate" yaml:"milestone2CompletionDate"`
	ClientName               string      `json:"clientName" yaml:"clientName"`
	AgentName                string      `json:"agentName" yaml:"agentName"`
}

type recordRows []recordView

// Table implements output.Tabler.
func (l recordRows) Table() *output.Table {
	t := &output.Table{Headers: []string{"ID", "DATE", "NAME", "ALPHA", "BETA", "GAMMA", "DELTA", "CLIENT", "AGENT"}}
	for _, r := range l {
		t.AddRow(
			strconv.FormatInt(r.ID, 10),
			r.Date.Format(time.DateOnly),
			output.FormatValue(r.Name),
			output.FormatValue(r.Alpha),
			output.FormatValue(r.Beta),
			output.FormatValue(r.Gamma),
			output.FormatValue(r.Delta),
			output.FormatValue(r.ClientName),
			output.FormatValue(r.AgentName),
		)
	}
	return t
}

// RecordCommand returns the record subcommand group.
func RecordCommand() *cli.Command {
	return &cli.Command{
		Name:    "record",
		Aliases: []string{"rec"},
		Usage:   "Manage records",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List all records",
				Action:  recordList,
			},
			{
				Name:      "get",
				Usage:     "Show one record",
				ArgsUsage: "ID",
				Action:    recordGet,
			},
			{
				Name:   "create",
				Usage:  "Create a record",
				Flags:  recordFlags(),
				Action: recordCreate,
			},
			{
				Name:      "update",
				Usage:     "Change fields of a record; unset flags keep their value",
				ArgsUsage: "ID",
				Flags:     recordFlags(),
				Action:    recordUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a record",
				ArgsUsage: "ID",
				Action:    recordDelete,
			},
		},
	}
}

// Milestone flags accept "none" to clear the date.
func recordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Usage: "Record date (YYYY-MM-DD or RFC 3339)"},
		&cli.StringFlag{Name: "name", Usage: "Record name"},
		&cli.StringFlag{Name: "alpha", Usage: "Alpha amount"},
		&cli.StringFlag{Name: "beta", Usage: "Beta amount"},
		&cli.StringFlag{Name: "gamma", Usage: "Gamma amount"},
		&cli.StringFlag{Name: "delta", Usage: "Delta amount"},
		&cli.StringFlag{Name: "m1-start", Usage: "Milestone 1 start date"},
		&cli.StringFlag{Name: "m1-complete", Usage: "Milestone 1 completion date"},
		&cli.StringFlag{Name: "m2-start", Usage: "Milestone 2 start date"},
		&cli.StringFlag{Name: "m2-complete", Usage: "Milestone 2 completion date"},
		&cli.StringFlag{Name: "client", Usage: "Client name"},
		&cli.StringFlag{Name: "agent", Usage: "Agent name"},
	}
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, requestTimeout(c))
}

func recordList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Get(ctx, client.RecordsPath())
	if err != nil {
		return err
	}
	records := recordRows{}
	if err := connection.ParseResponse(resp, &records); err != nil {
		return err
	}
	return render(c, records)
}

func recordGet(c *cli.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	rec, err := fetchRecord(ctx, client, id)
	if err != nil {
		return err
	}
	return render(c, rec)
}

func recordCreate(c *cli.Context) error {
	body, err := recordBody(c, map[string]any{})
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Post(ctx, client.RecordsPath(), body)
	if err != nil {
		return err
	}
	var created recordView
	if err := connection.ParseResponse(resp, &created); err != nil {
		return err
	}
	return render(c, &created)
}

// recordUpdate fetches the record and sends it back with the flagged
// fields replaced, since PUT replaces the whole record.
func recordUpdate(c *cli.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	current, err := fetchRecord(ctx, client, id)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return err
	}
	base := map[string]any{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&base); err != nil {
		return err
	}
	body, err := recordBody(c, base)
	if err != nil {
		return err
	}
	body["id"] = id

	resp, err := client.Put(ctx, client.RecordsPath(id), body)
	if err != nil {
		return err
	}
	var updated recordView
	if err := connection.ParseResponse(resp, &updated); err != nil {
		return err
	}
	return render(c, &updated)
}

func recordDelete(c *cli.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	resp, err := client.Delete(ctx, client.RecordsPath(id))
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Record %d deleted\n", id)
	return nil
}

func fetchRecord(ctx context.Context, client *connection.HTTPClient, id int64) (*recordView, error) {
	resp, err := client.Get(ctx, client.RecordsPath(id))
	if err != nil {
		return nil, err
	}
	var rec recordView
	if err := connection.ParseResponse(resp, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func recordID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one record ID")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record ID %q", c.Args().First())
	}
	return id, nil
}

// recordBody copies every flag set on c into body using the API field
// names. Amounts and dates are checked locally so typos fail before any
// request is made.
func recordBody(c *cli.Context, body map[string]any) (map[string]any, error) {
	text := []struct{ flag, field string }{
		{"name", "name"},
		{"client", "clientName"},
		{"agent", "agentName"},
	}
	for _, f := range text {
		if c.IsSet(f.flag) {
			body[f.field] = c.String(f.flag)
		}
	}

	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		if !c.IsSet(name) {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(c.String(name)))
		if err != nil {
			return nil, fmt.Errorf("--%s: invalid amount %q", name, c.String(name))
		}
		body[name] = json.Number(d.String())
	}

	if c.IsSet("date") {
		t, err := parseDate(c.String("date"))
		if err != nil {
			return nil, fmt.Errorf("--date: %w", err)
		}
		body["date"] = t.Format(time.RFC3339Nano)
	}

	milestones := []struct{ flag, field string }{
		{"m1-start", "milestone1StartDate"},
		{"m1-complete", "milestone1CompletionDate"},
		{"m2-start", "milestone2StartDate"},
		{"m2-complete", "milestone2CompletionDate"},
	}
	for _, m := range milestones {
		if !c.IsSet(m.flag) {
			continue
		}
		v := strings.TrimSpace(c.String(m.flag))
		if v == "" || strings.EqualFold(v, "none") {
			body[m.field] = nil
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", m.flag, err)
		}
		body[m.field] = t.Format(time.RFC3339Nano)
	}
	return body, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// parseDate reads a date in one of dateLayouts; values without a zone are UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
}
