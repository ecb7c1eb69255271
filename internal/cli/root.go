package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/filingassembly/internal/gcp"
	"github.com/Lllllllleong/filingassembly/internal/services"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "filingctl",
		Short: "Compose court filings and merge user documents locally",
		Long: `filingctl runs the filing composer and the merge manager against a local
directory, or the bucket named by STORAGE_BACKEND=gcs and STORAGE_BUCKET, the
same way the deployed functions run them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			gcp.LoadDotEnv()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("root", ".", "Directory (or object prefix) all document paths are relative to")
}

// openStore opens the store named by the environment. An explicit --root
// overrides STORAGE_ROOT; local stores default to the flag's value.
func openStore(cmd *cobra.Command) (services.FileStore, error) {
	cfg := services.LoadStoreConfig()
	root, _ := cmd.Flags().GetString("root")
	if cmd.Flags().Changed("root") || (cfg.Backend != services.StorageBackendGCS && cfg.Root == "") {
		cfg.Root = root
	}
	return services.NewFileStore(cmd.Context(), cfg)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(newComposeCmd())
	rootCmd.AddCommand(newMergeCmd())

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
