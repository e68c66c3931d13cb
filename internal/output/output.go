package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes command results as aligned text or as JSON.
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// New creates a new Formatter with the specified writer and JSON mode.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{
		Writer:   w,
		JSONMode: jsonMode,
	}
}

// Table writes rows under headers. In JSON mode every row becomes an object
// keyed by header; missing cells are empty strings.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		records := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			records = append(records, record(headers, row))
		}
		return f.Print(records)
	}

	tw := f.tabwriter()
	lines := append([][]string{headers, underline(headers)}, rows...)
	for _, cells := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// KeyValues writes labelled values one per line, or as a single JSON object
// keyed by label.
func (f *Formatter) KeyValues(pairs [][2]string) error {
	if f.JSONMode {
		obj := make(map[string]string, len(pairs))
		for _, kv := range pairs {
			obj[kv[0]] = kv[1]
		}
		return f.Print(obj)
	}

	tw := f.tabwriter()
	for _, kv := range pairs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Print writes data as indented JSON, or with %v in text mode.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}

func (f *Formatter) tabwriter() *tabwriter.Writer {
	return tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
}

func record(headers, row []string) map[string]string {
	obj := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			obj[h] = row[i]
		} else {
			obj[h] = ""
		}
	}
	return obj
}

// underline draws a dash rule as wide as each header.
func underline(headers []string) []string {
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	return rule
}
