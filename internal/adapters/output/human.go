package output

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/simplert/internal/core"
	"github.com/mikey-austin/simplert/internal/fixture"
)

// maxShown bounds how much of a transcript a failure row displays.
const maxShown = 40

// HumanPrinter prints tables and summaries for a terminal.
type HumanPrinter struct {
	Out io.Writer
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	w := writer(p.Out)
	switch data := v.(type) {
	case core.NodesResult:
		return printNodes(w, data)
	case core.SendResult:
		_, err := fmt.Fprintf(w, "%s: %d bytes\n", displayName(data.Name, data.NodeID), data.Emitted)
		return err
	case fixture.Report:
		return printReport(w, data)
	default:
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func printNodes(w io.Writer, result core.NodesResult) error {
	if len(result.Nodes) == 0 {
		_, err := fmt.Fprintln(w, "no nodes")
		return err
	}
	data := pterm.TableData{{"NAME", "KIND", "ENCODING", "NODE_ID"}}
	for _, node := range result.Nodes {
		encoding := node.Encoding
		if encoding == "" {
			encoding = "utf-8"
		}
		data = append(data, []string{node.Name, node.Kind, encoding, node.NodeID})
	}
	return renderTable(w, data)
}

func printReport(w io.Writer, report fixture.Report) error {
	data := pterm.TableData{{"SUITE", "CASE", "RESULT", "DETAIL"}}
	for _, res := range report.Results {
		status := pterm.FgGreen.Sprint("PASS")
		detail := ""
		if !res.Passed {
			status = pterm.FgRed.Sprint("FAIL")
			detail = failureDetail(res)
		}
		data = append(data, []string{res.Suite, res.Case, status, detail})
	}
	if err := renderTable(w, data); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d passed, %d failed", report.Passed(), report.Failed())
	if report.Failed() > 0 {
		summary = pterm.FgRed.Sprint(summary)
	} else {
		summary = pterm.FgGreen.Sprint(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func failureDetail(res fixture.Result) string {
	if res.Err != "" {
		return res.Err
	}
	return fmt.Sprintf("offset %d: got %q want %q", res.Offset, clip(res.Got, res.Offset), clip(res.Want, res.Offset))
}

// clip shows the part of s around the first difference.
func clip(s string, offset int) string {
	start := 0
	if offset > maxShown/2 {
		start = offset - maxShown/2
	}
	if start > len(s) {
		start = len(s)
	}
	end := min(len(s), start+maxShown)
	return s[start:end]
}

func renderTable(w io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func displayName(name, nodeID string) string {
	if name == "" {
		return nodeID
	}
	return fmt.Sprintf("%s (%s)", name, nodeID)
}
