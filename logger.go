package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logTimestampFormat = "2006-01-02 15:04:05"

// pipeFormatter renders entries as "<time> | <LEVEL> | <message> key=value ..."
type pipeFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter
func (f *pipeFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = logTimestampFormat
	}

	fmt.Fprintf(b, "%s | %s | %s", entry.Time.Format(timestampFormat), levelName(entry.Level), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, " %s=%v", key, entry.Data[key])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARNING"
	}
	return strings.ToUpper(level.String())
}

// newLogger builds the application logger. When logFile is set, lines are also
// appended to that file, which is rotated by size.
func newLogger(out io.Writer, level string, logFile string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&pipeFormatter{TimestampFormat: logTimestampFormat})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	if logFile != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}
	logger.SetOutput(out)

	return logger, nil
}
