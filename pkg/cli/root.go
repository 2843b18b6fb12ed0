package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/nxneeraj/phishwatch/pkg/config"
	"github.com/nxneeraj/phishwatch/pkg/httpclient"
	"github.com/nxneeraj/phishwatch/pkg/output"
	"github.com/nxneeraj/phishwatch/pkg/requester"
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRoot builds the phishwatch command tree.
func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phishwatch",
		Short:         "phishwatch: ask a local classifier whether a URL is phishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = version
	cmd.SetVersionTemplate("phishwatch {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.String("config", "phishwatch.yaml", "Path to YAML config file (missing file means defaults)")
	pf.String("endpoint", "", "Classification endpoint URL (default "+config.DefaultEndpoint+")")
	pf.Duration("timeout", 0, "Request timeout, 0 waits forever")
	pf.Bool("verbose", false, "Enable verbose logging")
	pf.Bool("no-color", false, "Disable colored output")
	pf.Bool("json", false, "Write display changes as JSON lines instead of text")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("endpoint") {
		cfg.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if cfg.NoColor {
		output.DisableColor()
	}
	return cfg, cfg.Validate()
}

// newRequester wires a Requester to the presenter chosen by --json.
func newRequester(cmd *cobra.Command, cfg *config.Config) *requester.Requester {
	var p requester.Presenter
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		p = output.NewJSONLines(cmd.OutOrStdout())
	} else {
		p = output.NewTerminal(cmd.OutOrStdout())
	}
	return requester.New(cfg.Endpoint, p,
		requester.WithClient(httpclient.NewClient(cfg.Timeout)),
		requester.WithLogger(newLogger(cmd.ErrOrStderr())),
		requester.WithVerbose(cfg.Verbose),
	)
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phishwatch %s\n", cmd.Root().Version)
		},
	}
}
