package logging

import (
	stderrs "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/types"
	"github.com/Station-Manager/utils"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/natefinch/lumberjack.v2"
)

// The internal channel carries the framework's own traces (validation,
// start, shutdown). It never depends on the configuration being built.
var internal atomic.Pointer[zerolog.Logger]

func defaultInternalLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Str("component", "logroute").
		Logger()
}

func internalLogger() *zerolog.Logger {
	if l := internal.Load(); l != nil {
		return l
	}
	l := defaultInternalLogger()
	internal.CompareAndSwap(nil, &l)
	return internal.Load()
}

// SetInternalLogger replaces the logger used for the framework's own traces.
func SetInternalLogger(l zerolog.Logger) {
	internal.Store(&l)
}

// ConfigureInternal builds the internal channel from a Station-Manager
// logging config, writing under workingDir. The returned closer releases
// the rolling log file, if one was opened.
func ConfigureInternal(workingDir string, cfg *types.LoggingConfig) (io.Closer, error) {
	const op errors.Op = "logging.ConfigureInternal"
	if err := validateConfig(cfg); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	if workingDir == emptyString {
		return nil, errors.New(op).Msg("working dir has not been set")
	}

	dir := filepath.Join(workingDir, cfg.RelLogFileDir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgLogDirFailed)
	}

	writers, fileWriter := internalWriters(dir, cfg)
	if len(writers) == 0 {
		return nil, errors.New(op).Err(stderrs.New("console and file output disabled")).Msg(errMsgNoChannels)
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgBadLevel)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Str("component", "logroute").Logger()
	if cfg.WithTimestamp {
		logger = logger.With().Timestamp().Logger()
	}
	if cfg.SkipFrameCount > 0 {
		logger = logger.With().CallerWithSkipFrameCount(cfg.SkipFrameCount).Logger()
	}
	SetInternalLogger(logger)

	if fileWriter == nil {
		return io.NopCloser(nil), nil
	}
	return fileWriter, nil
}

const fallbackLogFileName = "logroute.log"

var execName = utils.ExecName

// internalLogFileName names the bootstrap file after the running executable.
func internalLogFileName() string {
	name, err := execName(true)
	if err != nil || name == emptyString {
		return fallbackLogFileName
	}
	return name + ".log"
}

func internalWriters(dir string, cfg *types.LoggingConfig) ([]io.Writer, *lumberjack.Logger) {
	var writers []io.Writer
	var fileWriter *lumberjack.Logger

	if cfg.FileLogging {
		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(dir, internalLogFileName()),
			MaxBackups: cfg.LogFileMaxBackups,
			MaxAge:     cfg.LogFileMaxAgeDays,
			MaxSize:    cfg.LogFileMaxSizeMB,
			Compress:   cfg.LogFileCompress,
		}
		writers = append(writers, fileWriter)
	}
	if cfg.ConsoleLogging {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    cfg.ConsoleNoColor,
			TimeFormat: cfg.ConsoleTimeFormat,
		})
	}
	return writers, fileWriter
}
