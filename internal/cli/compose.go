package cli

import (
	"fmt"

	"github.com/Lllllllleong/filingassembly/internal/casefile"
	"github.com/Lllllllleong/filingassembly/internal/services"
	"github.com/spf13/cobra"
)

func newComposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <case.yaml>",
		Short: "Compose a court filing from a case file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompose,
	}
	cmd.Flags().StringP("output", "o", "", "Output path, overriding the case file")
	return cmd
}

func runCompose(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	cf, err := casefile.LoadCase(args[0])
	if err != nil {
		return err
	}
	if output != "" {
		cf.Output = output
	}
	if cf.Output == "" {
		return fmt.Errorf("no output path: set output in %s or pass --output", args[0])
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer services.CloseFileStore(store)
	ctx := cmd.Context()

	var application []byte
	if cf.Application != "" {
		if application, err = store.ReadFile(ctx, cf.Application); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using a placeholder application\n", err)
		}
	}

	composer := services.NewComposer(store, services.LoadComposerConfig())
	filing, err := composer.Compose(ctx, cf.User, cf.Case, application, cf.ExhibitFiles())
	if err != nil {
		return err
	}
	if err := store.WriteFile(ctx, cf.Output, filing.Content); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%d pages)\n", cf.Output, filing.PageCount)
	for _, row := range filing.Index {
		fmt.Fprintf(out, "  %d. %-45s %-2s %4d\n", row.Serial, row.Particulars, row.ExhibitLabel, row.Page)
	}
	for _, d := range filing.Diagnostics {
		fmt.Fprintf(out, "  skipped %s\n", d)
	}
	return nil
}
