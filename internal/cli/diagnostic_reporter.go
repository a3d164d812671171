package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/utils"
)

// DiagnosticReporter renders errors with their context and suggestions
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a new diagnostic reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
		out:     os.Stderr,
	}
}

// SetOutput redirects the report
func (r *DiagnosticReporter) SetOutput(w io.Writer) {
	r.out = w
}

// ReportWarning prints a one-line warning
func (r *DiagnosticReporter) ReportWarning(message string) {
	warn := color.New(color.FgYellow, color.Bold)
	warn.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError prints err with everything its error chain carries
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Synchronization Failed\n")
	fmt.Fprintf(r.out, "=============================\n\n")

	if syncErr := r.findSyncError(err); syncErr != nil {
		r.reportSyncError(err, syncErr)
	} else {
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	}
	fmt.Fprintf(r.out, "\n")
}

// ReportFailures lists the failed files of a run
func (r *DiagnosticReporter) ReportFailures(summary *Summary) {
	if summary == nil || summary.Failed == 0 {
		return
	}
	fmt.Fprintf(r.out, "\n%d of %d files failed:\n", summary.Failed, summary.Total)
	for _, res := range summary.Files {
		if res.Status != StatusFailed {
			continue
		}
		fmt.Fprintf(r.out, "  - %s: %s\n", res.Path, res.Reason)
		if !r.verbose || res.Err == nil {
			continue
		}
		if syncErr := r.findSyncError(res.Err); syncErr != nil {
			for _, s := range syncErr.Suggestions() {
				fmt.Fprintf(r.out, "      hint: %s\n", s)
			}
		}
	}
}

func (r *DiagnosticReporter) reportSyncError(err error, syncErr errors.SyncError) {
	title := r.formatCode(syncErr.ErrorCode())
	fmt.Fprintf(r.out, "Type: %s\n", title)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(title)+6))

	fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())

	if loc := syncErr.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n\n", loc.String())
	}

	if ctx := syncErr.Context(); len(ctx) > 0 {
		fmt.Fprintf(r.out, "Context:\n")
		for _, key := range utils.SortedMapKeys(ctx) {
			fmt.Fprintf(r.out, "   %s: %v\n", r.formatContextKey(key), ctx[key])
		}
		fmt.Fprintf(r.out, "\n")
	}

	if suggestions := syncErr.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintf(r.out, "Suggestions:\n")
		for i, s := range suggestions {
			fmt.Fprintf(r.out, "   %d. %s\n", i+1, s)
		}
		fmt.Fprintf(r.out, "\n")
	}

	r.printAdditionalHelp(syncErr.ErrorCode())

	if r.verbose {
		r.printErrorChain(err)
	}
}

func (r *DiagnosticReporter) formatCode(code errors.ErrorCode) string {
	switch code {
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	case errors.FileSystemErrorCode:
		return "File System Error"
	case errors.MetadataErrorCode:
		return "Metadata Error"
	case errors.MalformedAnnotationErrorCode:
		return "Annotation Syntax Error"
	case errors.RewriteErrorCode:
		return "Rewrite Error"
	case errors.NotFoundErrorCode:
		return "Row Class Not Found"
	default:
		return "Unknown Error"
	}
}

// formatContextKey converts snake_case keys to Title Case
func (r *DiagnosticReporter) formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printAdditionalHelp(code errors.ErrorCode) {
	switch code {
	case errors.ConfigurationErrorCode:
		fmt.Fprintf(r.out, "Configuration:\n")
		fmt.Fprintf(r.out, "  - Check serupd.yaml and the SERUPD_* environment variables\n")
		fmt.Fprintf(r.out, "  - appsettings.json must contain Data.<name>.ConnectionString entries\n\n")
	case errors.MetadataErrorCode:
		fmt.Fprintf(r.out, "Database:\n")
		fmt.Fprintf(r.out, "  - Check that the connection string is reachable from this machine\n")
		fmt.Fprintf(r.out, "  - The account needs read access to the catalog views\n\n")
	case errors.MalformedAnnotationErrorCode:
		fmt.Fprintf(r.out, "Attributes:\n")
		fmt.Fprintf(r.out, "  - Attribute sections must close with ]\n")
		fmt.Fprintf(r.out, "  - String arguments must be terminated\n\n")
	}

	fmt.Fprintf(r.out, "Run with --verbose for more detailed output\n")
}

func (r *DiagnosticReporter) printErrorChain(err error) {
	fmt.Fprintf(r.out, "\nError Chain:\n")
	level := 1
	for err != nil {
		fmt.Fprintf(r.out, "    %d. %s\n", level, err.Error())
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
		level++
	}
}

// findSyncError searches the chain for the first error carrying a code
func (r *DiagnosticReporter) findSyncError(err error) errors.SyncError {
	for err != nil {
		if syncErr, ok := err.(errors.SyncError); ok {
			return syncErr
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = unwrapper.Unwrap()
	}
	return nil
}
