package cli

import (
	"github.com/spf13/cobra"

	"github.com/nxneeraj/phishwatch/pkg/types"
)

// Exit codes of the check command.
const (
	CodeLegitimate = 0
	CodePhishing   = 1
	CodeError      = 2
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [url]",
		Short: "Check one URL and show the verdict",
		Long: `Check one URL and show the verdict.

The URL is sent exactly as typed; an omitted URL is sent as an empty string.
Exit status is 0 for Legitimate, 1 for Phishing and 2 for either error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rawURL := ""
			if len(args) == 1 {
				rawURL = args[0]
			}

			state := newRequester(cmd, cfg).Submit(cmd.Context(), rawURL)
			switch state {
			case types.StateResultLegitimate:
				return nil
			case types.StateResultPhishing:
				return &ExitError{Code: CodePhishing}
			default:
				return &ExitError{Code: CodeError}
			}
		},
	}
}
