package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyberstorm-dev/didgit/client"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func attestationCommands() *cli.Command {
	return &cli.Command{
		Name:  "attestation",
		Usage: "Attestation lookup commands",
		Subcommands: []*cli.Command{
			attestationGetCommand(),
		},
	}
}

func attestationGetCommand() *cli.Command {
	return &cli.Command{
		Name:    "get",
		Aliases: []string{"fetch"},
		Usage:   "Fetch a single attestation by its UID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "uid",
				Aliases:  []string{"u"},
				Usage:    "Attestation UID to look up",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Value:   client.DefaultEndpoint,
				Usage:   "EAS GraphQL endpoint URL",
				EnvVars: []string{"DIDGIT_ENDPOINT"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   20 * time.Second,
				Usage:   "Request timeout",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output the attestation as JSON",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq filter applied to the attestation before printing",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: func(c *cli.Context) error {
			httpClient := &http.Client{
				Timeout: c.Duration("timeout"),
			}
			logger := newLogger(c.Bool("verbose"))
			cl := client.NewClient(c.String("endpoint"), httpClient, logger)

			att, err := cl.GetAttestation(c.Context, c.String("uid"))
			if err != nil {
				return fmt.Errorf("failed to fetch attestation: %w", err)
			}
			if att == nil {
				return cli.Exit("Not found", 2)
			}

			if filter := c.String("jq"); filter != "" {
				return printFiltered(c.App.Writer, att, filter)
			}
			if c.Bool("json") {
				data, err := json.MarshalIndent(att, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal attestation: %w", err)
				}
				fmt.Fprintln(c.App.Writer, string(data))
				return nil
			}
			printAttestation(c.App.Writer, att)
			return nil
		},
	}
}

func printAttestation(w io.Writer, att *client.Attestation) {
	fmt.Fprintf(w, "UID:       %s\n", att.UID)
	fmt.Fprintf(w, "TxID:      %s\n", orNull(att.TxID))
	fmt.Fprintf(w, "Schema:    %s\n", att.Schema)
	fmt.Fprintf(w, "Attester:  %s\n", att.Attester)
	fmt.Fprintf(w, "Recipient: %s\n", orNull(att.Recipient))
}

// orNull renders a nullable field, keeping "absent" distinct from "empty".
func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

// printFiltered runs a jq filter over the attestation and prints each result
// on its own line.
func printFiltered(w io.Writer, att *client.Attestation, filter string) error {
	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	// gojq operates on generic JSON values, so round-trip the record.
	data, err := json.Marshal(att)
	if err != nil {
		return fmt.Errorf("failed to marshal attestation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal attestation: %w", err)
	}

	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if filterErr, isErr := v.(error); isErr {
			return fmt.Errorf("jq filter error: %w", filterErr)
		}
		out, err := gojq.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal jq result: %w", err)
		}
		fmt.Fprintln(w, string(out))
	}
	return nil
}
