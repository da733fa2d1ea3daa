package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}

	return 1
}

// exitCodeFromClassified maps ClassifiedError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryToolNotFound:
		return 3 // Missing prerequisite
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryFetch:
		return 8 // External system error
	case CategoryClassification:
		return 9 // Upstream format changed
	case CategoryMaterialization, CategoryFileSystem:
		return 11 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if classified, ok := AsClassified(err); ok {
		msg := fmt.Sprintf("Error: %v", err)
		if !a.verbose {
			msg = fmt.Sprintf("Error: %s: %s", classified.Category(), classified.Message())
			if ctx := classified.Context().String(); ctx != "" {
				msg += " (" + ctx + ")"
			}
			if cause := classified.Cause(); cause != nil {
				msg += fmt.Sprintf(": %v", cause)
			}
		}
		if h := hint(classified); h != "" {
			msg += "\n" + h
		}
		return msg
	}

	return fmt.Sprintf("Error: %v", err)
}

// hint suggests a remedy for errors the operator can fix locally.
func hint(err *ClassifiedError) string {
	if err.IsCategory(CategoryToolNotFound) {
		if tool, ok := err.Context().GetString("tool"); ok {
			return fmt.Sprintf("Hint: install %s or add it to PATH", tool)
		}
	}
	return ""
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.verbose {
		a.logError(err)
	}

	_, _ = fmt.Fprintln(a.out, message)
	a.exit(exitCode)
}

// logError logs an error with its category and context.
func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), slog.LevelError, classified.Message(), attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}
