package main

import (
	"github.com/spf13/viper"

	logging "github.com/Station-Manager/logroute"
)

// loadDeclaration reads a configuration file into a Declaration.
func loadDeclaration(path string) (logging.Declaration, error) {
	var decl logging.Declaration

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return decl, errx(ErrReadConfig, err)
	}
	if err := v.Unmarshal(&decl); err != nil {
		return decl, errx(ErrDecodeConfig, err)
	}
	return decl, nil
}
