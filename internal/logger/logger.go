// Package logger wraps logrus with the structured, field-based style the
// tree engine's watch/reader/tree packages log through (path, filesystem,
// node fields), backed by lumberjack for file-output rotation.
//
// Adapted from the obsidian-web server's internal/logger: the dependency
// on a YAML-loaded server config is replaced by a plain Options struct a
// host populates directly (tree.Config has no logging option). Nothing
// in this repository loads Options from YAML.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures lumberjack-backed rotation when Output is "file".
type FileOptions struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Options is the recognized logging configuration, built in code by a
// host embedding the engine; its yaml tags let a host decode it from
// YAML as well.
type Options struct {
	Level  string      `yaml:"level"`  // debug, info, warn, error
	Format string      `yaml:"format"` // text, json
	Output string      `yaml:"output"` // stdout, stderr, file
	File   FileOptions `yaml:"file"`
}

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure replaces the package-level logger according to opts. Safe to
// call at most once during host startup; the engine itself never calls
// this (it only logs through the package-level helpers below).
func Configure(opts Options) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	var output io.Writer
	switch strings.ToLower(opts.Output) {
	case "stderr":
		output = os.Stderr
	case "file":
		if opts.File.Path == "" {
			return fmt.Errorf("logger: file path required when output is 'file'")
		}
		output = &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
		}
	default:
		output = os.Stdout
	}
	l.SetOutput(output)

	log = l
	return nil
}

func WithField(key string, value interface{}) *logrus.Entry { return log.WithField(key, value) }
func WithFields(fields logrus.Fields) *logrus.Entry          { return log.WithFields(fields) }
func WithError(err error) *logrus.Entry                      { return log.WithError(err) }

func Debug(args ...interface{}) { log.Debug(args...) }
func Info(args ...interface{})  { log.Info(args...) }
func Warn(args ...interface{})  { log.Warn(args...) }
func Error(args ...interface{}) { log.Error(args...) }
