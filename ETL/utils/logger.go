package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// ETLLogger is the leveled logger used by every ETL phase
type ETLLogger struct {
	entry     *log.Entry
	file      *os.File
	isVerbose bool
}

// NewETLLogger creates a logger writing to stdout and, when logDir is set,
// to a daily file etl_log_YYYY-MM-DD.log inside logDir
func NewETLLogger(verbose bool, logDir string) (*ETLLogger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logDir != "" {
		logFileName := fmt.Sprintf("%s/etl_log_%s.log", logDir, time.Now().Format("2006-01-02"))

		f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFileName, err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	logger := NewETLLoggerWithWriter(out, verbose)
	logger.file = file
	return logger, nil
}

// NewETLLoggerWithWriter creates a logger writing to w only
func NewETLLoggerWithWriter(w io.Writer, verbose bool) *ETLLogger {
	base := log.New()
	base.SetOutput(w)
	base.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	base.SetLevel(log.InfoLevel)
	if verbose {
		base.SetLevel(log.DebugLevel)
	}

	return &ETLLogger{
		entry:     log.NewEntry(base),
		isVerbose: verbose,
	}
}

// WithField returns a logger that attaches key=value to every message
func (l *ETLLogger) WithField(key string, value interface{}) *ETLLogger {
	return &ETLLogger{
		entry:     l.entry.WithField(key, value),
		file:      l.file,
		isVerbose: l.isVerbose,
	}
}

// WithFields returns a logger that attaches fields to every message
func (l *ETLLogger) WithFields(fields log.Fields) *ETLLogger {
	return &ETLLogger{
		entry:     l.entry.WithFields(fields),
		file:      l.file,
		isVerbose: l.isVerbose,
	}
}

// Close closes the log file, if any
func (l *ETLLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Info logs an informational message
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warn logs a warning
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Error logs an error message
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// Debug logs a debug message (verbose mode only)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.entry.Debugf(format, v...)
}

// LogETLStart logs the start of an ETL run
func (l *ETLLogger) LogETLStart() {
	l.Info("Starting ETL run")
}

// LogETLComplete logs the end of an ETL run
func (l *ETLLogger) LogETLComplete(startTime time.Time, events, visitors, sessions, purchases int) {
	l.WithFields(log.Fields{
		"events":    events,
		"visitors":  visitors,
		"sessions":  sessions,
		"purchases": purchases,
	}).Info("ETL run finished. Duration: %v", time.Since(startTime))
}

// LogExtractStart logs the start of the extract phase
func (l *ETLLogger) LogExtractStart() {
	l.Info("Extract phase started")
}

// LogExtractComplete logs the end of the extract phase
func (l *ETLLogger) LogExtractComplete(events int, duration time.Duration) {
	l.WithField("events", events).Info("Extract phase finished. Duration: %v", duration)
}

// LogTransformComplete logs the end of the transform phase
func (l *ETLLogger) LogTransformComplete(sessions, funnelRows, attributionRows int, duration time.Duration) {
	l.WithFields(log.Fields{
		"sessions":         sessions,
		"funnel_rows":      funnelRows,
		"attribution_rows": attributionRows,
	}).Info("Transform phase finished. Duration: %v", duration)
}

// LogLoadComplete logs the end of the load phase
func (l *ETLLogger) LogLoadComplete(duration time.Duration) {
	l.Info("Load phase finished. Duration: %v", duration)
}
