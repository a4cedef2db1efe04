package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janisto/lead-intake/internal/platform/timeutil"
	"github.com/janisto/lead-intake/internal/service/lead"
)

// record is the dump format of one lead.
type record struct {
	ID              int64    `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Phone           string   `json:"phone" yaml:"phone"`
	NormalizedPhone *string  `json:"normalized_phone" yaml:"normalized_phone"`
	PreferredStart  string   `json:"preferred_start" yaml:"preferred_start"`
	PreferredEnd    *string  `json:"preferred_end" yaml:"preferred_end"`
	Reason          string   `json:"reason" yaml:"reason"`
	UTCOffset       *string  `json:"utc_offset" yaml:"utc_offset"`
	CallID          *string  `json:"call_id" yaml:"call_id"`
	CreatedAt       string   `json:"created_at" yaml:"created_at"`
	FXUSDEUR        *float64 `json:"fx_usd_eur" yaml:"fx_usd_eur"`
	FunFactShort    *string  `json:"fun_fact_short" yaml:"fun_fact_short"`
}

func newListCmd(a *app) *cobra.Command {
	var (
		format string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored leads, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}
			ctx := cmd.Context()

			store, err := lead.OpenStore(ctx, a.cfg.DatabaseURL, lead.StoreOptions{CredentialsFile: a.cfg.Firebase.CredentialsFile})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sess, err := store.Open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			leads, err := sess.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("list leads: %w", err)
			}
			if limit > 0 && len(leads) > limit {
				leads = leads[:limit]
			}
			return writeLeads(cmd.OutOrStdout(), format, leads)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n leads (0 prints all)")
	return cmd
}

func writeLeads(out io.Writer, format string, leads []lead.Lead) error {
	records := make([]record, 0, len(leads))
	for _, l := range leads {
		records = append(records, toRecord(l))
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tNAME\tPHONE\tSTART\tFX\tCALL")
	for _, r := range records {
		fx := "-"
		if r.FXUSDEUR != nil {
			fx = fmt.Sprintf("%.4f", *r.FXUSDEUR)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt, r.Name, r.Phone, r.PreferredStart, fx, deref(r.CallID))
	}
	return w.Flush()
}

func toRecord(l lead.Lead) record {
	return record{
		ID:              l.ID,
		Name:            l.Name,
		Phone:           l.Phone,
		NormalizedPhone: l.NormalizedPhone,
		PreferredStart:  l.PreferredStart,
		PreferredEnd:    l.PreferredEnd,
		Reason:          l.Reason,
		UTCOffset:       l.UTCOffset,
		CallID:          l.CallID,
		CreatedAt:       l.CreatedAt.UTC().Format(timeutil.RFC3339Millis),
		FXUSDEUR:        l.FXUSDEUR,
		FunFactShort:    l.FunFactShort,
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
