package logging

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/bytedance/sonic"
	beats "github.com/elastic/go-lumber/client/v2"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	KindConsole  = "console"
	KindFile     = "file"
	KindDebugger = "debugger"
	KindBeats    = "beats"

	defaultBeatsTimeout = 3 * time.Second
)

// writerSink forwards payloads to an io.Writer and optionally closes it.
type writerSink struct {
	w      io.Writer
	closer io.Closer
}

func (s *writerSink) Write(msg *Message) error {
	_, err := s.w.Write(msg.Payload)
	return err
}

func (s *writerSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ConsoleSink renders events in zerolog's human readable console format.
// Out defaults to os.Stderr.
type ConsoleSink struct {
	NoColor    bool      `mapstructure:"no_color"`
	TimeFormat string    `mapstructure:"time_format"`
	Out        io.Writer `mapstructure:"-"`
}

func (c ConsoleSink) Kind() string { return KindConsole }

func (c ConsoleSink) Build(Metadata) (Sink, error) {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: out, NoColor: c.NoColor, TimeFormat: c.TimeFormat}
	return &writerSink{w: cw}, nil
}

// FileSink appends JSON lines to a size-rotated file.
type FileSink struct {
	Path       string `mapstructure:"path" validate:"required"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func (c FileSink) Kind() string { return KindFile }

func (c FileSink) Build(Metadata) (Sink, error) {
	const op errors.Op = "logging.FileSink.Build"
	if err := os.MkdirAll(filepath.Dir(c.Path), os.ModePerm); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgLogDirFailed)
	}
	lj := &lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   c.Compress,
	}
	return &writerSink{w: lj, closer: lj}, nil
}

// DebuggerSink writes raw JSON lines to Out (default os.Stdout) while a
// debugger is tracing the process. With Always set it writes unconditionally.
type DebuggerSink struct {
	Always bool      `mapstructure:"always"`
	Out    io.Writer `mapstructure:"-"`
}

func (c DebuggerSink) Kind() string { return KindDebugger }

func (c DebuggerSink) Build(Metadata) (Sink, error) {
	if !c.Always && !debuggerAttached() {
		return &writerSink{w: io.Discard}, nil
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	return &writerSink{w: out}, nil
}

func debuggerAttached() bool {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return false
	}
	defer f.Close()
	return tracerPID(f) > 0
}

// tracerPID extracts the TracerPid field from a /proc/<pid>/status stream.
func tracerPID(r io.Reader) int {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "TracerPid:")))
		if err != nil {
			return 0
		}
		return pid
	}
	return 0
}

// BeatsSink ships events to a Logstash/Beats endpoint over the lumberjack v2 protocol.
type BeatsSink struct {
	Address          string        `mapstructure:"address" validate:"required,hostname_port"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	CompressionLevel int           `mapstructure:"compression_level" validate:"gte=0,lte=9"`
}

func (c BeatsSink) Kind() string { return KindBeats }

func (c BeatsSink) Build(meta Metadata) (Sink, error) {
	const op errors.Op = "logging.BeatsSink.Build"
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultBeatsTimeout
	}
	client, err := beats.SyncDial(c.Address, beats.CompressionLevel(c.CompressionLevel), beats.Timeout(timeout))
	if err != nil {
		return nil, errors.New(op).Err(err).Msg("failed connection to beats server")
	}
	return &beatsSink{client: client, meta: meta}, nil
}

type beatsClient interface {
	Send(data []interface{}) (int, error)
	Close() error
}

type beatsSink struct {
	client beatsClient
	meta   Metadata
}

func (s *beatsSink) Write(msg *Message) error {
	fields, err := beatsFields(msg, s.meta)
	if err != nil {
		return err
	}
	_, err = s.client.Send([]interface{}{fields})
	return err
}

func (s *beatsSink) Close() error {
	return s.client.Close()
}

// beatsFields decodes the encoded event and adds the fields Logstash expects.
func beatsFields(msg *Message, meta Metadata) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if err := sonic.Unmarshal(msg.Payload, &fields); err != nil {
		return nil, err
	}
	fields["@timestamp"] = msg.Time
	fields["service"] = map[string]interface{}{"name": meta.ServiceName}
	fields["log"] = map[string]interface{}{
		"logger": msg.Source,
		"level":  msg.Level.String(),
	}
	return fields, nil
}
