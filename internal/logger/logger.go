// Package logger configures the global zerolog logger: colored console output
// on stdout and, optionally, JSON lines in a daily log file.
package logger

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs the global logger. An empty logDir logs to stdout only.
func Init(level, logDir string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006/01/02 15:04:05"}
	writers := []io.Writer{console}

	if logDir != "" {
		fw, err := newDailyFile(logDir)
		if err != nil {
			log.Logger = zerolog.New(console).With().Timestamp().Logger()
			return err
		}
		writers = append(writers, fw)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

// dailyFile writes to <dir>/YYYY-MM-DD.log, switching files at midnight.
type dailyFile struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func newDailyFile(logDir string) (*dailyFile, error) {
	// If caller passes /data, write logs to /data/logs.
	// If caller already passes .../logs, keep it as-is.
	resolved := logDir
	if path.Base(filepath.ToSlash(logDir)) != "logs" {
		resolved = filepath.Join(logDir, "logs")
	}
	if err := os.MkdirAll(resolved, 0o750); err != nil {
		return nil, err
	}
	d := &dailyFile{dir: resolved, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(d.now()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(d.now()); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *dailyFile) rotateLocked(t time.Time) error {
	day := t.Format("2006-01-02")
	if d.file != nil && d.day == day {
		return nil
	}
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, day+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	d.file = f
	d.day = day
	return nil
}
