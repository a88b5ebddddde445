package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elC0mpa/cloud-steward/config"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/elC0mpa/cloud-steward/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfgFile  string
	verbose  bool
	noBanner bool

	v  *viper.Viper
	rt *runtime.Runtime
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{v: viper.New()}
	err := newRootCmd(a).ExecuteContext(ctx)
	if closeErr := a.teardown(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {

	root := &cobra.Command{
		Use:   "steward",
		Short: "Multi-cloud inventory and cost governance",
		Long: `steward discovers AWS, Azure and GCP resources into a local inventory,
estimates their monthly cost, recommends optimizations and compares the
estimate with billed spend.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&a.noBanner, "no-banner", false, "skip the banner")
	_ = a.v.BindPFlag("logging.development", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(
		a.syncCmd(),
		a.resourcesCmd(),
		a.analyzeCmd(),
		a.recommendationsCmd(),
		a.spendCmd(),
		a.notifyCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := runtime.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	if !a.noBanner {
		utils.DrawBanner(cmd.OutOrStdout())
	}

	rt, err := runtime.New(cmd.Context(), cfg, logger, runtime.Options{})
	if err != nil {
		return err
	}
	a.rt = rt
	return nil
}

func (a *app) teardown() error {
	utils.StopSpinner()
	if a.rt == nil {
		return nil
	}
	return a.rt.Close()
}
