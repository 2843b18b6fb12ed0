package cli

import (
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nxneeraj/phishwatch/pkg/api"
	"github.com/nxneeraj/phishwatch/pkg/classifier"
	"github.com/nxneeraj/phishwatch/pkg/config"
	"github.com/nxneeraj/phishwatch/pkg/features"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classification endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg)

			h, err := newAPIHandler(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.ListenAndServe(ctx, cfg.Server.Listen, api.NewRouter(h))
		},
	}

	cmd.Flags().String("listen", "", "Listen address (default "+config.DefaultListen+")")
	cmd.Flags().String("model", "", "Path to a YAML scoring model (default: built-in)")
	cmd.Flags().String("dns-server", "", "Nameserver host:port for DNS features (default: resolv.conf)")
	cmd.Flags().Bool("no-probes", false, "Skip DNS, HTTP and RDAP probes; use lexical features only")
	return cmd
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen, _ = flags.GetString("listen")
	}
	if flags.Changed("model") {
		cfg.Server.Model, _ = flags.GetString("model")
	}
	if flags.Changed("dns-server") {
		cfg.Server.DNSServer, _ = flags.GetString("dns-server")
	}
	if noProbes, _ := flags.GetBool("no-probes"); noProbes {
		off := false
		cfg.Server.NetworkProbes = &off
	}
}

func newAPIHandler(cfg *config.Config) (*api.APIHandler, error) {
	model := classifier.Default()
	if cfg.Server.Model != "" {
		m, err := classifier.Load(cfg.Server.Model)
		if err != nil {
			return nil, err
		}
		model = m
	}
	log.Printf("[+] Scoring model: %s", model.Name)

	var src *features.Sources
	if cfg.Server.ProbesEnabled() {
		src = features.NewNetworkSources(cfg.Server.DNSServer, cfg.Server.ProbeTimeout)
		log.Printf("[+] Network probes enabled (timeout %s)", cfg.Server.ProbeTimeout)
	} else {
		log.Println("[i] Network probes disabled, lexical features only")
	}

	h := api.NewAPIHandler(
		api.NewCheckLog(cfg.Server.HistorySize),
		features.NewExtractor(src, cfg.Server.ProbeTimeout, cfg.Verbose),
		model,
	)
	h.Verbose = cfg.Verbose
	return h, nil
}
