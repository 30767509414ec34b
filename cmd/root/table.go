package root

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Property is one row of a key-value table
type Property struct {
	Name  string
	Value interface{}
}

// RenderProperties prints rows as a PROPERTY/VALUE table
func RenderProperties(out io.Writer, rows []Property) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PROPERTY"),
		text.FgHiCyan.Sprint("VALUE"),
	})
	for _, r := range rows {
		t.AppendRow(table.Row{text.FgYellow.Sprint(r.Name), r.Value})
	}
	t.Render()
}
