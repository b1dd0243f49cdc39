package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/recordsvc/internal/cli/output"
	"github.com/yndnr/recordsvc/internal/core/domain"
)

// APIKeyCommand returns the apikey subcommand group.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "apikey",
		Aliases: []string{"key"},
		Usage:   "API key utilities",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a key ID, secret and the server config entry holding its hash",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Key role (reader, editor, metrics, admin)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Value: domain.DefaultRateLimit,
						Usage: "Per-key rate limit (requests/second)",
					},
					&cli.StringSliceFlag{
						Name:  "allowlist",
						Usage: "Allowed client IP or CIDR (repeatable)",
					},
					&cli.DurationFlag{
						Name:  "expires-in",
						Usage: "Lifetime of the key (0 = never expires)",
					},
				},
				Action: apikeyGenerate,
			},
		},
	}
}

// keyEntry mirrors one auth.keys item of the server configuration.
type keyEntry struct {
	KeyID      string    `json:"key_id" yaml:"key_id"`
	Name       string    `json:"name" yaml:"name"`
	Role       string    `json:"role" yaml:"role"`
	SecretHash string    `json:"secret_hash" yaml:"secret_hash"`
	RateLimit  int       `json:"rate_limit" yaml:"rate_limit"`
	Allowlist  []string  `json:"allowlist,omitempty" yaml:"allowlist,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

type generatedKey struct {
	KeyID  string   `json:"key_id" yaml:"key_id"`
	Secret string   `json:"secret" yaml:"secret"`
	Config keyEntry `json:"config" yaml:"config"`
}

func apikeyGenerate(c *cli.Context) error {
	role := strings.ToLower(c.String("role"))
	if !domain.IsValidRole(role) {
		return fmt.Errorf("invalid role %q (want one of %v)", c.String("role"), domain.ValidRoles())
	}

	key, secret, err := domain.NewAPIKey(c.String("name"), domain.Role(role))
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	key.RateLimit = c.Int("rate-limit")
	key.Allowlist = c.StringSlice("allowlist")

	entry := keyEntry{
		KeyID:      key.KeyID,
		Name:       key.Name,
		Role:       string(key.Role),
		SecretHash: key.SecretHash,
		RateLimit:  key.RateLimit,
		Allowlist:  key.Allowlist,
	}
	if d := c.Duration("expires-in"); d > 0 {
		expires := time.Now().Add(d).UTC().Truncate(time.Second)
		entry.ExpiresAt = &expires
		key.ExpiresAt = expires.UnixMilli()
	}
	if err := key.Validate(); err != nil {
		return err
	}

	result := generatedKey{KeyID: key.KeyID, Secret: secret, Config: entry}
	if settingsFrom(c).Format != output.FormatTable {
		return render(c, result)
	}

	snippet, err := yaml.Marshal(map[string]any{
		"auth": map[string]any{"keys": []keyEntry{entry}},
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Key ID: %s\n", result.KeyID)
	fmt.Fprintf(w, "Secret: %s\n", result.Secret)
	fmt.Fprintf(w, "\nSave the secret now, it is not stored anywhere.\n")
	fmt.Fprintf(w, "Clients send it as: Authorization: Bearer %s:<secret>\n", result.KeyID)
	fmt.Fprintf(w, "\nAdd to the server configuration:\n\n%s", snippet)
	return nil
}
