package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcarvalho-pb/ipsim-go/internal/config"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
)

var Version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	zap        *zap.Logger
	logger     *logging.ZapLogger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "ipsim",
		Short:         "ipsim - checkout payment simulator",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zap != nil {
				_ = a.zap.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(payCmd(a))
	rootCmd.AddCommand(watchCmd(a))
	rootCmd.AddCommand(listCmd(a))

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	zl, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.zap = zl
	a.logger = logging.NewZapLogger(zl)
	return nil
}
