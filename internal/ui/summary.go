package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nirtamir-cli/cli/internal/queue"
)

var headingColor = color.New(color.FgCyan)

// RenderSummary prints every non-empty section of s as a heading followed by
// one "  - name" line per record.
func RenderSummary(w io.Writer, s queue.Summary) {
	for _, sec := range s.Sections() {
		if len(sec.Items) == 0 {
			continue
		}
		headingColor.Fprintln(w, sec.Heading)
		for _, item := range sec.Items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}

// RenderReport prints the outcome of a flush. Failed records are listed so
// the user can retry them.
func RenderReport(w io.Writer, r queue.Report) {
	color.New(color.FgGreen).Fprintf(w, "%d update(s) applied\n", len(r.Applied))
	if len(r.Failed) == 0 {
		return
	}
	color.New(color.FgRed).Fprintf(w, "%d update(s) failed:\n", len(r.Failed))
	for _, rec := range r.Failed {
		fmt.Fprintf(w, "  - %s %s\n", rec.Category(), rec.Name())
	}
}
