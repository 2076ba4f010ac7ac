package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/leapstack-labs/efscan/internal/cli/output"
	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/spf13/cobra"
)

// ScanCmdOptions holds options for the scan command.
type ScanCmdOptions struct {
	Force bool
	Watch bool
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanCmdOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the model directory and extract the data model",
		Long: `Walk the configured directory of generated sources, extract the data
model, infer relationships, and run the validation steps.

Each scan is recorded in the state database together with per-file content
hashes, so unchanged files are skipped on the next pass. Use --force to
re-record every file, and --watch to keep rescanning as files change.`,
		Example: `  # Scan the configured directory
  efscan scan

  # Re-record every file even when unchanged
  efscan scan --force

  # Rescan whenever a source file changes (Ctrl+C to stop)
  efscan scan --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Re-record every file even when unchanged")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Rescan whenever a source file changes")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanCmdOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Watch {
		return runScanWatch(cmd, cmdCtx, opts)
	}

	r := cmdCtx.Renderer

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner(fmt.Sprintf("Scanning %s...", cmdCtx.Cfg.Dir))
		spinner.Start()
	}

	result, err := cmdCtx.Engine.Scan(cmd.Context(), engine.ScanOptions{Force: opts.Force})
	if err != nil {
		if spinner != nil {
			spinner.Fail("Scan failed")
		}
		return err
	}

	if spinner != nil {
		spinner.Success(fmt.Sprintf("Scanned %s", cmdCtx.Cfg.Dir))
	}

	return renderScanResult(r, cmdCtx.Cfg.Dir, result)
}

// runScanWatch runs the initial scan and then rescans on every source
// change until interrupted.
func runScanWatch(cmd *cobra.Command, cmdCtx *CommandContext, opts *ScanCmdOptions) error {
	r := cmdCtx.Renderer

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	r.Printf("Watching %s for changes (Ctrl+C to stop)\n", cmdCtx.Cfg.Dir)

	err := cmdCtx.Engine.Watch(ctx, engine.ScanOptions{Force: opts.Force}, func(result *engine.ScanResult, scanErr error) {
		if scanErr != nil {
			if errors.Is(scanErr, context.Canceled) {
				return
			}
			r.Error(scanErr.Error())
			return
		}
		r.Success(result.Summary())
	})

	// Cancellation is the normal way out of watch mode.
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func renderScanResult(r *output.Renderer, dir string, result *engine.ScanResult) error {
	out := output.ScanOutput{
		ScanID:        result.ScanID,
		Root:          dir,
		Namespace:     result.Model.Namespace,
		Context:       result.Model.Context.ClassName,
		FilesSeen:     result.FilesSeen,
		FilesChanged:  result.FilesChanged,
		FilesDeleted:  result.FilesDeleted,
		Tables:        len(result.Model.Objects),
		Relationships: result.Graph.EdgeCount(),
		Duration:      result.Duration.Round(time.Millisecond).String(),
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return scanMarkdown(r, out)
	default:
		return scanText(r, out)
	}
}

// scanText outputs the scan result in styled text format.
func scanText(r *output.Renderer, out output.ScanOutput) error {
	r.Println()
	r.Header(1, fmt.Sprintf("%s (%s)", out.Namespace, out.Context))
	r.Printf("  Files:         %d seen, %d changed, %d deleted\n", out.FilesSeen, out.FilesChanged, out.FilesDeleted)
	r.Printf("  Tables:        %d\n", out.Tables)
	r.Printf("  Relationships: %d\n", out.Relationships)
	r.Printf("  Duration:      %s\n", out.Duration)
	r.Muted(fmt.Sprintf("  Scan %s recorded", out.ScanID))
	return nil
}

// scanMarkdown outputs the scan result in markdown format.
func scanMarkdown(r *output.Renderer, out output.ScanOutput) error {
	r.Println(output.FormatHeader(1, "Scan Report"))
	r.Println("")
	r.Println(output.FormatKeyValue("Namespace", out.Namespace))
	r.Println(output.FormatKeyValue("Context", out.Context))
	r.Println(output.FormatKeyValue("Root", out.Root))
	r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d seen, %d changed, %d deleted", out.FilesSeen, out.FilesChanged, out.FilesDeleted)))
	r.Println(output.FormatKeyValue("Tables", strconv.Itoa(out.Tables)))
	r.Println(output.FormatKeyValue("Relationships", strconv.Itoa(out.Relationships)))
	r.Println(output.FormatKeyValue("Duration", out.Duration))
	r.Println(output.FormatKeyValue("Scan ID", out.ScanID))
	return nil
}
