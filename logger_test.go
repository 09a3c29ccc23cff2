package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

func Test_pipeFormatter(t *testing.T) {
	tests := []struct {
		name     string
		level    logrus.Level
		message  string
		data     logrus.Fields
		expected string
	}{
		{
			name:     "info",
			level:    logrus.InfoLevel,
			message:  "ABC-1.doc saved",
			expected: "2024-03-01 09:30:05 | INFO | ABC-1.doc saved\n",
		},
		{
			name:     "warning is spelled out",
			level:    logrus.WarnLevel,
			message:  "Can't export ABC-1.xml",
			expected: "2024-03-01 09:30:05 | WARNING | Can't export ABC-1.xml\n",
		},
		{
			name:     "fields are sorted",
			level:    logrus.ErrorLevel,
			message:  "Failed to download ABC-1.doc",
			data:     logrus.Fields{"status": 500, "issue": "ABC-1"},
			expected: "2024-03-01 09:30:05 | ERROR | Failed to download ABC-1.doc issue=ABC-1 status=500\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			entry := &logrus.Entry{
				Time:    time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC),
				Level:   tt.level,
				Message: tt.message,
				Data:    tt.data,
			}

			out, err := (&pipeFormatter{}).Format(entry)

			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(string(out)).To(Equal(tt.expected))
		})
	}
}

func Test_newLogger(t *testing.T) {
	g := NewWithT(t)
	out := &bytes.Buffer{}

	logger, err := newLogger(out, "warning", "")
	g.Expect(err).NotTo(HaveOccurred())

	logger.Info("hidden")
	logger.Warn("Can't export ABC-1.doc")

	g.Expect(out.String()).NotTo(ContainSubstring("hidden"))
	g.Expect(out.String()).To(MatchRegexp(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \| WARNING \| Can't export ABC-1\.doc\n$`))
}

func Test_newLogger_InvalidLevel(t *testing.T) {
	g := NewWithT(t)

	_, err := newLogger(&bytes.Buffer{}, "verbose", "")
	g.Expect(err).To(HaveOccurred())
}

func Test_newLogger_LogFile(t *testing.T) {
	g := NewWithT(t)
	out := &bytes.Buffer{}
	logFile := filepath.Join(t.TempDir(), "logs", "export.log")

	logger, err := newLogger(out, "info", logFile)
	g.Expect(err).NotTo(HaveOccurred())

	logger.Info("ABC-1.doc saved")

	g.Expect(out.String()).To(ContainSubstring("| INFO | ABC-1.doc saved"))
	g.Expect(readTestFile(t, logFile)).To(Equal(out.String()))
}
