package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

//Represents statistics that will be printed at the end of processing
type ExportStatistics struct {
	TotalIssues   int
	FilesSaved    int
	NotExportable int
	Errors        int
}

// Exporter downloads issue views one at a time and saves them in OutputDir
type Exporter struct {
	Client    *JiraClient
	OutputDir string
	Formats   []ExportFormat // downloaded in this order for each issue
	Mode      ApplicationMode
	Strict    bool // only save 2xx responses
	Logger    logrus.FieldLogger

	statistics ExportStatistics
}

//getJiraClient returns Jira client with basic authorization set up
func getJiraClient(cfg *Config, timeout time.Duration) (*JiraClient, error) {
	return NewJiraClient(cfg.URL, cfg.Email, cfg.Token, timeout)
}

// ExportIssues handles the main loop: every format of every issue, in list order.
// Per-issue failures are logged and counted, they never stop the run.
func (e *Exporter) ExportIssues(ctx context.Context, issues JiraIssueList) ExportStatistics {
	e.statistics = ExportStatistics{}
	formats := e.Formats
	if len(formats) == 0 {
		formats = exportFormats
	}

	for _, issueKey := range issues {
		if ctx.Err() != nil {
			e.Logger.WithError(ctx.Err()).Warn("Export interrupted")
			break
		}
		e.statistics.TotalIssues += 1

		for _, format := range formats {
			if ctx.Err() != nil {
				break
			}
			e.exportIssue(ctx, issueKey, format)
		}
	}

	return e.statistics
}

func (e *Exporter) exportIssue(ctx context.Context, issueKey string, format ExportFormat) {
	fileName := fmt.Sprintf("%s.%s", issueKey, format.Suffix())
	logger := e.Logger.WithField("issue", issueKey)

	//In test mode only show what would be downloaded
	if e.Mode == ModeTest {
		exportURL, err := e.Client.ExportURL(issueKey, format)
		if err != nil {
			e.statistics.Errors += 1
			logger.WithError(err).Errorf("Can't build export URL for %s", fileName)
			return
		}
		logger.Infof("In test mode, skipping download of %s from %s", fileName, exportURL)
		return
	}

	resp, err := e.Client.ExportIssue(ctx, issueKey, format)
	if errors.Is(err, ErrNotExportable) {
		e.statistics.NotExportable += 1
		logger.Warnf("Can't export %s", fileName)
		return
	}
	if err != nil {
		e.statistics.Errors += 1
		logger.WithError(err).Errorf("Failed to download %s", fileName)
		return
	}
	defer resp.Body.Close()

	if !isSuccessStatus(resp.StatusCode) {
		if e.Strict {
			e.statistics.Errors += 1
			logger.WithField("status", resp.StatusCode).Errorf("Jira returned an error for %s, not saved", fileName)
			return
		}
		logger.WithField("status", resp.StatusCode).Warnf("Unexpected status for %s, saving response anyway", fileName)
	}

	if err := writeFile(filepath.Join(e.OutputDir, fileName), resp.Body); err != nil {
		e.statistics.Errors += 1
		logger.WithError(err).Errorf("Failed to save %s", fileName)
		return
	}

	e.statistics.FilesSaved += 1
	logger.Infof("%s saved", fileName)
}

func isSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// writeFile streams r into path through a temporary file in the same directory,
// so a failed transfer never replaces a previously saved file.
func writeFile(path string, r io.Reader) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

//printExportResults prints statistics to standard output
func printExportResults(out io.Writer, statistics ExportStatistics) {
	fmt.Fprintf(out, "\nResults:\n")
	fmt.Fprintf(out, "Issues total: %v\n", statistics.TotalIssues)
	fmt.Fprintf(out, "Files saved: %v\n", statistics.FilesSaved)
	fmt.Fprintf(out, "Not exportable: %v\n", statistics.NotExportable)
	fmt.Fprintf(out, "Errors: %v\n", statistics.Errors)
}
