package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/foliodb/folio/pkg/history"
	"github.com/foliodb/folio/pkg/model"
)

var hisCmd = &cobra.Command{
	Use:   "his",
	Short: "Read and write a record's history time-series",
}

var hisReadCmd = &cobra.Command{
	Use:   "read ID",
	Short: "Read a record's history, optionally over a span",
	Long: `his read ID [--start RFC3339 --end RFC3339] [--limit N] [--clip-future]

With --start and --end, the "prev / window / next-2" span policy
applies and --limit/--clip-future are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startRaw, _ := cmd.Flags().GetString("start")
		endRaw, _ := cmd.Flags().GetString("end")
		limit, _ := cmd.Flags().GetInt("limit")
		clipFuture, _ := cmd.Flags().GetBool("clip-future")

		var span *model.Span
		if startRaw != "" || endRaw != "" {
			if startRaw == "" || endRaw == "" {
				return fmt.Errorf("--start and --end must be given together")
			}
			start, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, endRaw)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			span = &model.Span{Start: start, End: end}
		}

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		h := history.New(rs, history.Hooks{})
		count := 0
		err = h.Read(args[0], span, history.ReadOpts{Limit: limit, ClipFuture: clipFuture}, func(item model.HisItem) bool {
			fmt.Printf("%s  %s\n", item.TS.Format(time.RFC3339), item.Val.String())
			count++
			return true
		})
		if err != nil {
			return err
		}
		fmt.Printf("\n%d item(s)\n", count)
		return nil
	},
}

var hisWriteCmd = &cobra.Command{
	Use:   "write ID [TS=VALUE ...]",
	Short: "Write, overwrite, or clear items in a record's history",
	Long: `his write ID [TS=VALUE ...]

Each TS=VALUE argument is an RFC3339 timestamp and a value in the same
syntax as "add"/"update"'s --set; TS=R removes the item at that exact
timestamp. --clear-all deletes the whole series before writing;
--clear-start/--clear-end delete a [start, end) range.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clearAll, _ := cmd.Flags().GetBool("clear-all")
		clearStart, _ := cmd.Flags().GetString("clear-start")
		clearEnd, _ := cmd.Flags().GetString("clear-end")

		items, err := parseHisItems(args[1:])
		if err != nil {
			return err
		}

		opts := history.WriteOpts{ClearAll: clearAll}
		if clearStart != "" || clearEnd != "" {
			if clearStart == "" || clearEnd == "" {
				return fmt.Errorf("--clear-start and --clear-end must be given together")
			}
			start, err := time.Parse(time.RFC3339, clearStart)
			if err != nil {
				return fmt.Errorf("--clear-start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, clearEnd)
			if err != nil {
				return fmt.Errorf("--clear-end: %w", err)
			}
			opts.Clear = &model.Span{Start: start, End: end}
		}

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		h := history.New(rs, history.Hooks{})
		result, err := h.Write(args[0], items, opts, "foliostore his write")
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d item(s)\n", result.Count)
		return nil
	},
}

func parseHisItems(args []string) ([]model.HisItem, error) {
	items := make([]model.HisItem, 0, len(args))
	for _, a := range args {
		tsRaw, valRaw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid history item %q, expected TS=VALUE", a)
		}
		ts, err := time.Parse(time.RFC3339, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		v, err := parseValue(valRaw)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		items = append(items, model.HisItem{TS: ts, Val: v})
	}
	return items, nil
}

func init() {
	hisReadCmd.Flags().String("start", "", "Span start, RFC3339 (requires --end)")
	hisReadCmd.Flags().String("end", "", "Span end, RFC3339 (requires --start)")
	hisReadCmd.Flags().Int("limit", 0, "Cap the number of items emitted (non-spanned reads only)")
	hisReadCmd.Flags().Bool("clip-future", false, "Skip items timestamped after now (non-spanned reads only)")

	hisWriteCmd.Flags().Bool("clear-all", false, "Delete the whole series before writing")
	hisWriteCmd.Flags().String("clear-start", "", "Clear-range start, RFC3339 (requires --clear-end)")
	hisWriteCmd.Flags().String("clear-end", "", "Clear-range end, RFC3339 (requires --clear-start)")

	hisCmd.AddCommand(hisReadCmd)
	hisCmd.AddCommand(hisWriteCmd)
}
