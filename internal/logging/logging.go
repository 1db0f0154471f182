package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const filePrefix = "twitter_server_"

// Options configures the process wide logger
type Options struct {
	// Level is one of debug, info, warn, error
	Level string

	// Dir is where the daily log file is appended to. A new file is started
	// with the first entry of each day. Leave empty to log to stderr only.
	Dir string

	// Now is used to name the log file, defaults to time.Now
	Now func() time.Time
}

// FileName returns the name of the log file for the given day
func FileName(t time.Time) string {
	return filePrefix + t.Format("20060102") + ".log"
}

// New returns a logger writing to stderr and, when a directory is configured,
// appending JSON lines to that day's log file. The returned func closes the
// file and must be called once the logger is no longer used.
func New(opts Options) (*zap.Logger, func() error, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, nil, fmt.Errorf("unable to parse log level: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl),
	}
	closeFn := func() error { return nil }

	if opts.Dir != "" {
		now := opts.Now
		if now == nil {
			now = time.Now
		}

		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("unable to create log dir: %w", err)
		}

		f := &dailyFile{dir: opts.Dir, now: now}
		if err := f.rotate(); err != nil {
			return nil, nil, err
		}

		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), f, lvl))
		closeFn = f.Close
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.WithCaller(true))

	return logger, closeFn, nil
}

// dailyFile appends to the log file of the current day, switching files when
// the day changes. Writes are serialised.
type dailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	name string
	f    *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if FileName(d.now()) != d.name {
		if err := d.rotate(); err != nil {
			return 0, err
		}
	}

	return d.f.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.f.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.f.Close()
}

// rotate opens today's file and closes the previous one, callers hold mu
// except during construction
func (d *dailyFile) rotate() error {
	name := FileName(d.now())
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}

	if d.f != nil {
		_ = d.f.Close()
	}
	d.f, d.name = f, name

	return nil
}
