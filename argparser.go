package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//Mode
type ApplicationMode string

//Path to configuration file
type ConfigPath string

const (
	//Download and save every issue
	ModeNormal ApplicationMode = "normal"
	//Authenticate and print export URLs, nothing is downloaded
	ModeTest ApplicationMode = "test"
)

//Possible application modes(constant array)
var applicationModes = [...]ApplicationMode{ModeNormal, ModeTest}

//Environment variables prefix, e.g. JIRA_EXPORT_OUTPUT
const envPrefix = "JIRA_EXPORT"

// Options holds everything a run needs besides the Jira credentials
type Options struct {
	ConfigPath ConfigPath
	IssuesPath string
	OutputDir  string
	Formats    []ExportFormat
	Timeout    time.Duration
	Mode       ApplicationMode
	Strict     bool
	LogLevel   string
	LogFile    string
	//Issue keys given as arguments, used instead of the issues file
	Issues JiraIssueList
}

// NewRootCommand creates the jira-issue-exporter command.
// Flags can also be set through JIRA_EXPORT_* environment variables.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	baseDir := programDir()

	cmd := &cobra.Command{
		Use:           "jira-issue-exporter [ISSUE-KEY...]",
		Short:         "Download Jira issues as Word documents and XML exports",
		Long:          rootLongDescription,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ParseFlags(v, args)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd.OutOrStdout(), opts.LogLevel, opts.LogFile)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}

			return run(cmd.Context(), opts, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", filepath.Join(baseDir, "config.json"), "path to config file (JSON, or YAML with a .yaml/.yml extension)")
	flags.StringP("issues", "i", filepath.Join(baseDir, "issues.txt"), "path to the issue list, one issue key per line")
	flags.StringP("output", "o", filepath.Join(baseDir, "output"), "directory where exported issues are saved")
	flags.StringSliceP("formats", "f", []string{string(FormatDocument), string(FormatXML)}, "export formats, in download order (doc, xml)")
	flags.Duration("timeout", defaultRequestTimeout, "timeout of each request to Jira")
	flags.String("mode", string(ModeNormal), "application mode (normal, test)")
	flags.Bool("strict", false, "save only responses with a 2xx status code")
	flags.StringP("log-level", "l", "info", "logging level (debug, info, warning, error)")
	flags.String("log-file", "", "also write logs to this file, rotated by size")

	cobra.CheckErr(v.BindPFlags(flags))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

// ParseFlags reads flag and environment values into Options
func ParseFlags(v *viper.Viper, args []string) (*Options, error) {
	opts := &Options{
		ConfigPath: ConfigPath(v.GetString("config")),
		IssuesPath: v.GetString("issues"),
		OutputDir:  v.GetString("output"),
		Timeout:    v.GetDuration("timeout"),
		Mode:       ApplicationMode(v.GetString("mode")),
		Strict:     v.GetBool("strict"),
		LogLevel:   v.GetString("log-level"),
		LogFile:    v.GetString("log-file"),
		Issues:     NewJiraIssueList(args),
	}

	if err := validateApplicationMode(opts.Mode); err != nil {
		return nil, err
	}

	formats, err := parseFormats(v.GetStringSlice("formats"))
	if err != nil {
		return nil, err
	}
	opts.Formats = formats

	return opts, nil
}

// parseFormats accepts both repeated values and comma separated lists
func parseFormats(values []string) ([]ExportFormat, error) {
	var formats []ExportFormat
	seen := map[ExportFormat]bool{}

	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			format, err := ParseExportFormat(name)
			if err != nil {
				return nil, err
			}
			if !seen[format] {
				seen[format] = true
				formats = append(formats, format)
			}
		}
	}

	if len(formats) == 0 {
		return nil, fmt.Errorf("no export format selected")
	}
	return formats, nil
}

func validateApplicationMode(appMode ApplicationMode) error {
	for _, mode := range applicationModes {
		if mode == appMode {
			return nil
		}
	}

	return fmt.Errorf("invalid application mode. Please select one of: %+q", applicationModes)
}

//programDir returns the directory of the running binary, default location of input and output files
func programDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// run loads the configuration and the issue list, checks the credentials and
// exports every issue. Any error returned here ends the process.
func run(ctx context.Context, opts *Options, logger *logrus.Logger, out io.Writer) error {
	//Read config file
	logger.WithField("config", opts.ConfigPath).Debug("Loading configuration file")
	config, err := NewConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := CheckMandatoryConfiguration(config); err != nil {
		return fmt.Errorf("%s: %w", opts.ConfigPath, err)
	}

	//Issue keys from CLI arguments take precedence over the issues file
	issues := opts.Issues
	if len(issues) == 0 {
		issues, err = ReadIssueList(opts.IssuesPath)
		if err != nil {
			return err
		}
	}
	logger.Debugf("List of Jira issues to process: %+q", issues)

	client, err := getJiraClient(config, opts.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create jira client: %w", err)
	}

	user, err := client.VerifyIdentity(ctx)
	if err != nil {
		return err
	}
	logger.WithField("url", config.URL).Infof("Authenticated as %s", displayName(user.DisplayName, config.Email))

	if opts.Mode == ModeNormal {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if len(issues) == 0 {
		logger.Warn("No Jira issues provided")
	}

	exporter := &Exporter{
		Client:    client,
		OutputDir: opts.OutputDir,
		Formats:   opts.Formats,
		Mode:      opts.Mode,
		Strict:    opts.Strict,
		Logger:    logger,
	}
	statistics := exporter.ExportIssues(ctx, issues)

	//Output results
	printExportResults(out, statistics)

	return ctx.Err()
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

const rootLongDescription = `Download Jira issues as Word documents and XML exports.

Credentials are read from a JSON file with exactly three keys:

  {"url": "https://example.atlassian.net", "email": "me@example.com", "token": "<api token>"}

Issue keys are read from the issues file, one key per line, unless they are
given as arguments. Every issue is saved as <output>/<KEY>.doc and
<output>/<KEY>.xml. Issues Jira refuses to export (404) are skipped with a warning.

Example usage:

$ jira-issue-exporter --config config.json --issues issues.txt --output output
$ jira-issue-exporter --formats xml PROJ-1 PROJ-2
`
