package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/FranksOps/serprank/internal/storage"
	"github.com/FranksOps/serprank/internal/storage/jsonbackend"
	"github.com/FranksOps/serprank/internal/storage/postgres"
	"github.com/FranksOps/serprank/internal/storage/sqlite"
)

// ErrUnknownStore is returned by OpenHistory for an unsupported URI scheme.
var ErrUnknownStore = errors.New("history: unknown store (want sqlite://, postgres:// or json://)")

// OpenHistory opens the rank history backend named by uri:
// sqlite://path, json://path or a postgres:// connection string.
func OpenHistory(ctx context.Context, uri string) (storage.Backend, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || rest == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, redact(uri))
	}
	switch strings.ToLower(scheme) {
	case "sqlite":
		return sqlite.New(rest)
	case "json":
		return jsonbackend.New(rest)
	case "postgres", "postgresql":
		return postgres.New(ctx, uri)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, redact(uri))
	}
}

// redact hides the password of a connection string for logging.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	return u.Redacted()
}

func newHistoryCmd() *cobra.Command {
	var (
		store   string
		keyword string
		domain  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored rank records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == "" {
				return errors.New("history: --history is required")
			}
			backend, err := OpenHistory(cmd.Context(), store)
			if err != nil {
				return err
			}
			defer backend.Close()

			records, err := backend.Query(cmd.Context(), storage.Filter{
				Keyword: keyword,
				Domain:  domain,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"When", "Keyword", "Domain", "Engine", "Rank", "Page", "URL"})
			for _, r := range records {
				rank, page := "-", "-"
				if r.Found {
					rank, page = strconv.Itoa(r.Rank), strconv.Itoa(r.Page)
				}
				t.AppendRow(table.Row{r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Keyword, r.Domain, r.Engine, rank, page, r.URL})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "Records", len(records)})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "history", "", "rank history store: sqlite://path, postgres://..., json://path")
	cmd.Flags().StringVar(&keyword, "keyword", "", "only records for this keyword")
	cmd.Flags().StringVar(&domain, "domain", "", "only records for this domain")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to list, 0 for all")
	return cmd
}
