package cli

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/filingassembly/internal/casefile"
	"github.com/Lllllllleong/filingassembly/internal/services"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <plan.yaml>",
		Short: "Merge the documents listed in a merge plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runMerge,
	}
	cmd.Flags().Bool("cleanup", false, "Remove the key's scratch directory after merging")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	cleanup, _ := cmd.Flags().GetBool("cleanup")

	plan, err := casefile.LoadMergePlan(args[0])
	if err != nil {
		return err
	}
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer services.CloseFileStore(store)
	ctx := cmd.Context()
	manager := services.NewMergeManager(store, services.LoadMergeConfig())
	manager.AddToMergeQueue(ctx, plan.Key, plan.Files)

	res, err := manager.MergeUserPDFs(ctx, plan.Key)
	out := cmd.OutOrStdout()
	for _, d := range res.Diagnostics {
		fmt.Fprintf(out, "  skipped %s\n", d)
	}
	if err != nil {
		if errors.Is(err, services.ErrNoValidContent) {
			return fmt.Errorf("nothing merged for %s: %w", plan.Key, err)
		}
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d pages from %d files)\n", res.MergedFilePath, res.TotalPages, res.MergedFiles)

	if cleanup {
		return manager.CleanupTempDocuments(ctx, plan.Key)
	}
	return nil
}
