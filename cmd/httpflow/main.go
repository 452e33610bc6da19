// Command httpflow runs .http files against a live server, evaluating
// each request's dependencies, conditions, and assertions.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/httpflow/httpflow"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

type exitCoder interface {
	ExitCode() int
}

func exitCodeFor(err error) int {
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return 1
}

type runFailure struct{ code int }

func (e *runFailure) Error() string { return "run failed" }
func (e *runFailure) ExitCode() int { return e.code }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "httpflow [FILE...]",
		Short:         "Run .http files and report pass/fail/skip per request",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	flags := root.Flags()
	flags.BoolP("verbose", "v", false, "Emit full request/response details to the log sink")
	flags.String("log", "", "Mirror console output to a timestamped log file (default base name \"log\")")
	flags.Lookup("log").NoOptDefVal = "log"
	flags.String("env", "", "Select environment from http-client.env.json")
	flags.Bool("insecure", false, "Accept invalid TLS certificates and hostnames")
	flags.Bool("discover", false, "Recursively gather *.http from the current directory")
	flags.Bool("pretty-json", false, "Reformat JSON bodies in --export files (verbose log output is not reformatted)")
	flags.String("report", "", "Render a report: markdown|html")
	flags.Lookup("report").NoOptDefVal = "markdown"
	flags.Bool("export", false, "Write per-request request/response files to ./exports")
	flags.Int("delay", 0, "Milliseconds to sleep before each request after the first")
	flags.Bool("no-banner", false, "No-op, accepted for CLI-surface compatibility")
	flags.Bool("no-telemetry", false, "No-op, accepted for CLI-surface compatibility")
	flags.Bool("upgrade", false, "No-op, accepted for CLI-surface compatibility")

	return root
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	logPath, _ := flags.GetString("log")
	env, _ := flags.GetString("env")
	insecure, _ := flags.GetBool("insecure")
	discover, _ := flags.GetBool("discover")
	prettyJSON, _ := flags.GetBool("pretty-json")
	report, _ := flags.GetString("report")
	export, _ := flags.GetBool("export")
	delayMS, _ := flags.GetInt("delay")

	logger := newCLILogger(verbose)

	files, err := resolveFiles(args, discover)
	if err != nil {
		return err
	}

	runner, err := httpflow.NewRunner(
		httpflow.WithEnvironment(env),
		httpflow.WithInsecure(insecure),
		httpflow.WithLogger(logger),
		httpflow.WithDelay(time.Duration(delayMS)*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("initializing runner: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runner.RunFiles(ctx, files)
	if err != nil {
		logger.Error("run completed with file-level errors", "error", err)
	}

	if consoleErr := (httpflow.ConsoleReporter{}).Report(cmd.OutOrStdout(), results); consoleErr != nil {
		return &runFailure{code: 2}
	}

	if logPath != "" {
		if logErr := writeLogMirror(logPath, results); logErr != nil {
			return &runFailure{code: 2}
		}
	}

	if report != "" {
		filename, repErr := writeReportFileFn(report, results)
		if repErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "failed to generate report:", repErr)
			return &runFailure{code: 2}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report generated: %s\n", filename)
	}

	if export {
		if _, expErr := httpflow.ExportFiles("exports", results, prettyJSON); expErr != nil {
			return &runFailure{code: 2}
		}
	}

	if !results.OverallSuccess {
		return &runFailure{code: 1}
	}
	return nil
}

func resolveFiles(args []string, discover bool) ([]string, error) {
	if discover {
		if len(args) > 0 {
			return nil, fmt.Errorf("--discover is mutually exclusive with positional FILE arguments")
		}
		return httpflow.Discover(".")
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no files given: pass FILE... or --discover")
	}
	return args, nil
}

// writeReportFileFn is overridden in tests to force a write failure without
// depending on filesystem permissions (the tests may run as root, where a
// permission-denied failure cannot be relied on).
var writeReportFileFn = writeReportFile

// writeReportFile renders results with the reporter named by format and
// writes it to a timestamped file, returning the name written. It is
// strictly additive to the console summary printed by runRoot, mirroring
// the original CLI's "report generated: <file>" behavior rather than
// replacing stdout output with the report.
func writeReportFile(format string, results *httpflow.ProcessorResults) (string, error) {
	reporter, ext, err := reporterForFormat(format)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("report_%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	if err := writeReportToPath(name, reporter, results); err != nil {
		return "", err
	}
	return name, nil
}

func reporterForFormat(format string) (httpflow.Reporter, string, error) {
	switch format {
	case "markdown":
		return httpflow.MarkdownReporter{}, "md", nil
	case "html":
		return httpflow.HTMLReporter{}, "html", nil
	default:
		return nil, "", fmt.Errorf("unknown --report value %q", format)
	}
}

func writeReportToPath(path string, reporter httpflow.Reporter, results *httpflow.ProcessorResults) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer f.Close()
	if err := reporter.Report(f, results); err != nil {
		return fmt.Errorf("writing report file %s: %w", path, err)
	}
	return nil
}

func writeLogMirror(base string, results *httpflow.ProcessorResults) error {
	name := fmt.Sprintf("%s_%s.log", base, time.Now().UTC().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("creating log file %s: %w", name, err)
	}
	defer f.Close()
	return (httpflow.ConsoleReporter{NoColor: true}).Report(f, results)
}

func newCLILogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
