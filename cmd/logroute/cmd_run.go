package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	logging "github.com/Station-Manager/logroute"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the configuration, emit a test event and shut down",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("logger", "logroute.cli", "Source name of the test event")
	runCmd.Flags().String("message", "logroute test event", "Message of the test event")
	runCmd.Flags().Duration("flush-budget", logging.DefaultFlushBudget, "Time allowed for flushing")
	runCmd.Flags().Duration("shutdown-budget", logging.DefaultShutdownBudget, "Time allowed for teardown")
	runCmd.Flags().Bool("dump", false, "Log the decoded declaration at debug level")
	viper.BindPFlag("run.logger", runCmd.Flags().Lookup("logger"))
	viper.BindPFlag("run.message", runCmd.Flags().Lookup("message"))
	viper.BindPFlag("run.flush-budget", runCmd.Flags().Lookup("flush-budget"))
	viper.BindPFlag("run.shutdown-budget", runCmd.Flags().Lookup("shutdown-budget"))
	viper.BindPFlag("run.dump", runCmd.Flags().Lookup("dump"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	decl, err := loadDeclaration(viper.GetString("config"))
	if err != nil {
		return err
	}

	h, err := logging.WithConfiguration(decl.Service, func(logging.Configuration) (logging.Configuration, error) {
		return decl.Configuration()
	})
	if err != nil {
		return errx(ErrStart, err)
	}
	defer h.Close()

	log := logging.GetLogger(viper.GetString("run.logger"))
	if viper.GetBool("run.dump") {
		logging.Dump(log, decl)
	}
	log.InfoWith().
		Str("instance", h.ID()).
		Msg(viper.GetString("run.message"))

	res := h.Shutdown(cmd.Context(), viper.GetDuration("run.flush-budget"), viper.GetDuration("run.shutdown-budget"))
	fmt.Fprintf(cmd.OutOrStdout(), "instance %s: %s in %s (flush timed out: %t, shutdown timed out: %t)\n",
		h.ID(), h.State(), res.Elapsed.Round(time.Millisecond), res.FlushTimedOut, res.ShutdownTimedOut)
	return nil
}
