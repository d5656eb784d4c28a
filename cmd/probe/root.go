package main

import (
	"io"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type probeFlags struct {
	configPath string
	url        string
	token      string
	transport  string
	timeout    time.Duration
	jsonOutput bool
	verbose    bool
}

var flags probeFlags

// rootCmd talks to the gateway directly, bypassing the console's cache.
var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Inspect the gateway's cron service",
	Long: `probe calls the gateway's cron RPC methods with the same client the console
uses. It is meant for checking connectivity and comparing what the gateway
reports with what the console shows.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config/config.json", "path to config file")
	pf.StringVar(&flags.url, "url", "", "gateway base URL (overrides config)")
	pf.StringVar(&flags.token, "token", "", "gateway bearer token (overrides config)")
	pf.StringVar(&flags.transport, "transport", "", "gateway transport: http or ws (overrides config)")
	pf.DurationVar(&flags.timeout, "timeout", 10*time.Second, "per-call timeout")
	pf.BoolVar(&flags.jsonOutput, "json", false, "print raw JSON")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log gateway client activity")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(runsCmd)
}

func newClient(stderr io.Writer) (*gateway.Client, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	gw := cfg.Gateway
	if flags.url != "" {
		gw.URL = flags.url
	}
	if flags.token != "" {
		gw.Token = flags.token
	}
	if flags.transport != "" {
		gw.Transport = flags.transport
	}
	gw.Timeout = flags.timeout.String()
	// One failure is enough to report; never wait on an open breaker.
	gw.Breaker.MaxFailures = 1

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)
	if flags.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return gateway.NewClientFromConfig(gw, logger, nil)
}
