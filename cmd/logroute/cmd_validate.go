package main

import (
	stderrs "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	logging "github.com/Station-Manager/logroute"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every rule references a declared target",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	decl, err := loadDeclaration(viper.GetString("config"))
	if err != nil {
		return err
	}
	return validateDeclaration(cmd.OutOrStdout(), decl)
}

func validateDeclaration(w io.Writer, decl logging.Declaration) error {
	conf, err := decl.Configuration()
	if err != nil {
		return errx(ErrBuildConfig, err)
	}
	conf, err = logging.Validate(conf)
	if err != nil {
		var failure *logging.ValidationFailure
		if stderrs.As(err, &failure) {
			for _, r := range failure.InvalidRules {
				fmt.Fprintf(w, "invalid rule: target=%s source=%q level=%s\n", r.Target, r.Source, r.Level)
			}
		}
		return errx(ErrInvalidConfig, err)
	}
	fmt.Fprintf(w, "%s: %d target(s), %d rule(s) OK\n", conf.Metadata().ServiceName, len(conf.Targets()), len(conf.Rules()))
	return nil
}
