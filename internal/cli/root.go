package cli

import (
	"fmt"
	"os"

	"github.com/LeJamon/goAMM/internal/config"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/di"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool

	cfg *config.Config
)

// queryCaller is the caller of read-only simulations.
var queryCaller = asset.Account(1)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ammd",
	Short: "ammd - constant-product AMM engine",
	Long: `ammd runs constant-product liquidity pools, their factory and a
multi-hop router on a local key-value store. Scenarios of calls can be
replayed against the store, pools inspected and routes quoted.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}

// initConfig reads the config file and AMMD_ environment variables.
func initConfig() error {
	loaded, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if debug {
		loaded.Log.Level = "debug"
	}
	cfg = loaded
	return nil
}

// openServices builds the service container for the loaded config. The
// caller closes the container.
func openServices() (*di.Container, *di.Provider, error) {
	c := di.New()
	p := di.NewProvider(c, cfg)
	if err := p.RegisterAll(); err != nil {
		return nil, nil, err
	}
	return c, p, nil
}
