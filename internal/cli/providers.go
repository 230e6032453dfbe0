package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/deferq/internal/provider"
)

// NewProvidersCommand creates the providers command.
func NewProvidersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "providers",
		Short:         "List registered providers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			names := provider.Providers()

			if formatter.Format == "json" {
				return formatter.Success(map[string][]string{"providers": names})
			}
			for _, name := range names {
				fmt.Fprintln(formatter.Writer, name)
			}
			return nil
		},
	}
}
