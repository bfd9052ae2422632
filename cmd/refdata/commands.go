package main

import (
	"strings"

	"github.com/spf13/cobra"

	"agenda/pkg/requestcontext"
)

// newRootCmd builds the command tree around an already wired app.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refdata",
		Short: "Reference lists and postal code lookups for the scheduling form",
		Long: `Load, warm and invalidate the cached reference lists behind the scheduling
form, and try the postal code resolver and field validation from the shell.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Arguments are valid by now; later failures are not usage errors.
			cmd.SilenceUsage = true
			cmd.SetContext(requestcontext.EnsureRequestID(cmd.Context()))
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "load <dataset>",
			Short: "Print a reference list from the cache, the remote source or the fallback",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.load(cmd.Context(), args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "warm",
			Short: "Load every dataset into the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.warm(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "refresh <dataset>",
			Short: "Drop the cached copy of a dataset and load it again",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.refresh(cmd.Context(), args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "invalidate <dataset>",
			Short: "Drop the cached copy of a dataset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.lists.Invalidate(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "datasets",
			Short: "List dataset names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return writeLines(cmd.OutOrStdout(), a.catalog.Names())
			},
		},
		&cobra.Command{
			Use:   "options <dataset>",
			Short: "Print the selection options built for a field bound to a dataset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.options(cmd.Context(), args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "cep <code>",
			Short: "Resolve a postal code into address fields",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.resolvePostalCode(cmd.Context(), args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:       "check <rule> <value>...",
			Short:     "Run the advisory validation for a rule (address or specialty)",
			Args:      cobra.MinimumNArgs(2),
			ValidArgs: []string{"address", "specialty"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.check(args[0], strings.Join(args[1:], " "), cmd.OutOrStdout())
			},
		},
	)
	return rootCmd
}
