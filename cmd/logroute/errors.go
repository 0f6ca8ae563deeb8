package main

import (
	"errors"
	"fmt"
)

var (
	ErrReadConfig    = errors.New("read config")
	ErrDecodeConfig  = errors.New("decode config")
	ErrBuildConfig   = errors.New("build config")
	ErrInvalidConfig = errors.New("invalid config")
	ErrStart         = errors.New("start logging")
)

func errx(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
