package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	ffmpeg "github.com/linuxmatters/ffmpeg-statigo"

	"github.com/framewell/rendergate/internal/cli"
	"github.com/framewell/rendergate/internal/logging"
	"github.com/framewell/rendergate/internal/project"
	"github.com/framewell/rendergate/internal/ui"
	"github.com/framewell/rendergate/internal/validate"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version  bool     `short:"v" help:"Show version information"`
	Config   string   `short:"c" type:"path" help:"Path to YAML validation config (optional)"`
	Metadata string   `short:"m" type:"path" help:"Path to YAML project metadata (optional)"`
	Logs     bool     `help:"Save detailed quality report files next to the media"`
	JSON     bool     `help:"Print reports as JSON to stdout (implies --plain)"`
	Plain    bool     `help:"Disable the TUI and print plain results"`
	Files    []string `arg:"" name:"files" help:"Media files to validate" type:"existingfile" optional:""`
}

func main() {
	// Suppress FFmpeg info/verbose logging to keep console clean
	ffmpeg.AVLogSetLevel(ffmpeg.AVLogError)

	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("rendergate"),
		kong.Description("Automated quality gate for rendered media"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	cfg := validate.DefaultConfig()
	if cliArgs.Config != "" {
		loaded, err := validate.LoadConfig(cliArgs.Config)
		if err != nil {
			cli.PrintError(fmt.Sprintf("config: %v", err))
			os.Exit(2)
		}
		cfg = loaded
	}

	var meta *project.Metadata
	if cliArgs.Metadata != "" {
		loaded, err := project.Load(cliArgs.Metadata)
		if err != nil {
			cli.PrintError(fmt.Sprintf("metadata: %v", err))
			os.Exit(2)
		}
		meta = loaded
	}

	if cliArgs.Plain || cliArgs.JSON {
		os.Exit(runPlain(cliArgs, cfg, meta))
	}
	os.Exit(runTUI(cliArgs, cfg, meta))
}

// runTUI validates files behind the Bubbletea interface and reports
// stage transitions live.
func runTUI(cliArgs *CLI, cfg validate.Config, meta *project.Metadata) int {
	model := ui.NewModel(cliArgs.Files)
	p := tea.NewProgram(model, tea.WithAltScreen())

	anyFailed := false
	anyFatal := false

	// Start validating in background
	go func() {
		for i, inputPath := range cliArgs.Files {
			fileStartTime := time.Now()

			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			index := i
			validator := validate.NewValidator(validate.WithStageFunc(func(stage validate.Stage) {
				p.Send(ui.StageMsg{FileIndex: index, Stage: stage})
			}))

			report, err := validator.Validate(context.Background(), inputPath, meta, cfg)
			if err != nil {
				anyFatal = true
				p.Send(ui.FileCompleteMsg{
					FileIndex: i,
					Error:     err,
				})
				continue
			}

			if !report.Passed {
				anyFailed = true
			}

			if cliArgs.Logs {
				if err := logging.GenerateReport(logging.ReportData{
					MediaPath: inputPath,
					StartTime: fileStartTime,
					EndTime:   time.Now(),
					Report:    report,
					Config:    cfg,
					Metadata:  meta,
				}); err != nil {
					anyFatal = true
				}
			}

			p.Send(ui.FileCompleteMsg{
				FileIndex: i,
				Report:    report,
			})
		}

		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		return 2
	}

	return exitCode(anyFailed, anyFatal)
}

// runPlain validates files without the TUI, printing one verdict per
// file (or JSON reports with --json).
func runPlain(cliArgs *CLI, cfg validate.Config, meta *project.Metadata) int {
	validator := validate.NewValidator()

	anyFailed := false
	anyFatal := false
	var reports []*validate.Report

	for _, inputPath := range cliArgs.Files {
		fileStartTime := time.Now()

		report, err := validator.Validate(context.Background(), inputPath, meta, cfg)
		if err != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", inputPath, err))
			anyFatal = true
			continue
		}

		if !report.Passed {
			anyFailed = true
		}
		reports = append(reports, report)

		if !cliArgs.JSON {
			fmt.Printf("%s %s  overall %.2f (visual %.2f, audio %.2f, sync %.2f), %d issue(s)\n",
				cli.RenderVerdict(report.Passed), inputPath,
				report.OverallScore, report.VisualScore, report.AudioScore, report.SyncScore,
				len(report.Issues))
			for _, rec := range report.Recommendations {
				fmt.Printf("  - %s\n", rec)
			}
		}

		if cliArgs.Logs {
			if err := logging.GenerateReport(logging.ReportData{
				MediaPath: inputPath,
				StartTime: fileStartTime,
				EndTime:   time.Now(),
				Report:    report,
				Config:    cfg,
				Metadata:  meta,
			}); err != nil {
				cli.PrintError(fmt.Sprintf("%s: %v", inputPath, err))
				anyFatal = true
			}
		}
	}

	if cliArgs.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			cli.PrintError(fmt.Sprintf("encoding reports: %v", err))
			return 2
		}
	}

	return exitCode(anyFailed, anyFatal)
}

// exitCode maps run outcomes to the process exit code: 2 for fatal
// errors, 1 when any file failed the gate, 0 otherwise.
func exitCode(anyFailed, anyFatal bool) int {
	switch {
	case anyFatal:
		return 2
	case anyFailed:
		return 1
	default:
		return 0
	}
}
