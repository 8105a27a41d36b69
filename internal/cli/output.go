package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pageza/modelhistory/internal/history"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REV\tACTION\tUSER\tCONTEXT\tWHEN\tCHANGES")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Revision, e.Action, e.UserName, e.ContextSlug,
			e.CreatedAt.Format("2006-01-02 15:04:05"), summarize(e))
	}
	return tw.Flush()
}

func printChanges(w io.Writer, changes []history.Change) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FIELD\tOLD\tNEW")
	for _, c := range changes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Label, displayString(c.Old), displayString(c.New))
	}
	return tw.Flush()
}

func summarize(e history.Entry) string {
	if e.Comment != "" {
		return fmt.Sprintf("%q", e.Comment)
	}
	s := ""
	for i, c := range e.Changes {
		if i > 0 {
			s += ", "
		}
		s += c.Label
	}
	return s
}

func displayString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case history.Link:
		return fmt.Sprintf("%s <%s>", t.Label, t.URL)
	}
	return fmt.Sprint(v)
}
