package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foliodb/folio/pkg/config"
	"github.com/foliodb/folio/pkg/log"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/store"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foliostore",
	Short: "Folio record store administrative CLI",
	Long: `foliostore talks directly to a Folio record store over its
Redis-protocol-shaped wire endpoint: inspect records, run ad-hoc tag
queries, read and write history, and serve the admin health/metrics
endpoints. It embeds a RecordStore, the same engine a host platform
daemon would link against, rather than speaking to one over RPC.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"foliostore version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (see pkg/config)")
	rootCmd.PersistentFlags().String("endpoint", "", "Override opts.endpoint, e.g. folio://:secret@localhost:6379/0")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(hisCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

// loadConfig builds a Config from --config (if given) and --endpoint,
// falling back to config.Default().
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var cfg config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Default()
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		cfg.Opts.Endpoint = endpoint
	}
	return cfg, nil
}

// openStore loads config from cmd's flags and opens a RecordStore
// against it. Callers must Close the returned store.
func openStore(cmd *cobra.Command) (*store.RecordStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rs, err := store.Open(cfg, store.Hooks{})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return rs, nil
}

var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Fetch a single record by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		rec, ok := rs.ReadByID(args[0])
		if !ok {
			return fmt.Errorf("record not found: %s", args[0])
		}
		printDict(rec)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [ID]",
	Short: "Add a new record",
	Long: `add [ID] --set name=value [--set name=value ...]

ID may be omitted, in which case the store generates one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		changes, err := parseSets(sets)
		if err != nil {
			return err
		}

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		id := ""
		if len(args) == 1 {
			id = args[0]
		} else {
			id = rs.NewID()
		}

		recs, err := rs.Commit([]model.Diff{model.NewAdd(id, changes)}, "foliostore add")
		if err != nil {
			return err
		}
		printDict(recs[id])
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update an existing record",
	Long:  `update ID --set name=value [--set name=value ...] [--force]`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		force, _ := cmd.Flags().GetBool("force")
		changes, err := parseSets(sets)
		if err != nil {
			return err
		}

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		rec, ok := rs.ReadByID(args[0])
		if !ok {
			return fmt.Errorf("record not found: %s", args[0])
		}
		oldMod, _ := rec.Mod()

		diff := model.NewUpdate(args[0], oldMod, changes)
		diff.Force = force
		recs, err := rs.Commit([]model.Diff{diff}, "foliostore update")
		if err != nil {
			return err
		}
		printDict(recs[args[0]])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Destroy a record outright",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		rec, ok := rs.ReadByID(args[0])
		if !ok {
			return fmt.Errorf("record not found: %s", args[0])
		}
		oldMod, _ := rec.Mod()

		if _, err := rs.Commit([]model.Diff{model.NewRemove(args[0], oldMod)}, "foliostore remove"); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the store's current commit version counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()
		fmt.Println(rs.CurVer())
		return nil
	},
}

func init() {
	addCmd.Flags().StringArray("set", nil, "Tag to set, name=value (repeatable)")
	updateCmd.Flags().StringArray("set", nil, "Tag to set, name=value (repeatable)")
	updateCmd.Flags().Bool("force", false, "Bypass the optimistic concurrency check")
}

func printDict(d model.Dict) {
	d.Each(func(name string, v model.Value) bool {
		fmt.Printf("%-16s %s\n", name, v.String())
		return true
	})
}
