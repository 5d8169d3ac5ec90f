package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Text writes v as a plain-text summary followed by a landmark table.
func (r *Renderer) Text(w io.Writer, v View) error {
	annotated := r.loc.text(keyNo)
	if v.ShowAnnotated {
		annotated = r.loc.text(keyYes)
	}

	lines := []string{
		r.loc.text(keySummaryPose, v.PoseName),
		r.loc.text(keySummaryCount, v.LandmarkCount),
		r.loc.text(keySummaryConns, v.ConnectionCount),
		r.loc.text(keySummaryImage, annotated),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if v.Empty() {
		_, err := fmt.Fprintln(w, v.Placeholder)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"#", "X", "Y", r.loc.text(keyColumnVisibility)})
	for _, row := range v.Landmarks {
		t.AppendRow(table.Row{row.Index, row.X, row.Y, row.Visibility})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	return nil
}
