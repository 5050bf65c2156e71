package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foliodb/folio/pkg/store"
)

var queryCmd = &cobra.Command{
	Use:   "query [FILTER]",
	Short: "Run an ad-hoc tag query against the cache",
	Long: `query [FILTER] lists every cached record matching FILTER, a
comma-separated list of predicates ANDed together: a bare tag name
("site") matches has(tag), and "name=value" matches eq(tag, value).
Omit FILTER to list every record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := ""
		if len(args) == 1 {
			expr = args[0]
		}
		f, err := parseFilter(expr)
		if err != nil {
			return err
		}

		trash, _ := cmd.Flags().GetBool("trash")
		limit, _ := cmd.Flags().GetInt("limit")
		sortOut, _ := cmd.Flags().GetBool("sort")

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		opts := store.QueryOpts{Trash: trash, Limit: limit, Sort: sortOut}
		recs := rs.ReadAll(f, opts)
		for i, rec := range recs {
			if i > 0 {
				fmt.Println("---")
			}
			printDict(rec)
		}
		fmt.Printf("\n%d record(s)\n", len(recs))
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count [FILTER]",
	Short: "Count cached records matching FILTER, ignoring any limit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := ""
		if len(args) == 1 {
			expr = args[0]
		}
		f, err := parseFilter(expr)
		if err != nil {
			return err
		}

		trash, _ := cmd.Flags().GetBool("trash")

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		fmt.Println(rs.ReadCount(f, store.QueryOpts{Trash: trash}))
		return nil
	},
}

func init() {
	queryCmd.Flags().Bool("trash", false, "Include soft-deleted records")
	queryCmd.Flags().Int("limit", store.DefaultLimit, "Maximum records to emit")
	queryCmd.Flags().Bool("sort", false, "Sort results by display string")

	countCmd.Flags().Bool("trash", false, "Include soft-deleted records")
}
