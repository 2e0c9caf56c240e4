package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a structured slog.Logger with the given level. When dir is
// set, records are also written to <dir>/<YYYY-MM-DD>/app_<HH-MM>.log.
func NewLogger(level slog.Leveler, dir string) (*slog.Logger, io.Closer) {
	writers := []io.Writer{os.Stdout}
	var closer io.Closer = nopCloser{}
	if dir != "" {
		file := logFile(dir, time.Now())
		writers = append(writers, file)
		closer = file
	}
	h := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	return slog.New(h), closer
}

// logFile names one file per launch. Each launch gets a fresh file, so only
// size rotation applies; age and backup limits would never see older launches.
func logFile(dir string, now time.Time) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:  filepath.Join(dir, now.Format("2006-01-02"), "app_"+now.Format("15-04")+".log"),
		LocalTime: true,
		Compress:  true,
		MaxSize:   100,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
