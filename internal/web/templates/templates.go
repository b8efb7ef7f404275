// Package templates renders the HTML pages of the web UI.
//
// Components are plain templ.Component values so handlers can render them
// the same way whether a page is served whole or as an HTMX fragment.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// TableCard is one row of the table list.
type TableCard struct {
	Key           string
	Label         string
	SpreadSheetID string
	SheetID       string
	Columns       int
	TargetTable   string
}

// TableViewParams is everything the table preview page shows.
type TableViewParams struct {
	Key       string
	Label     string
	Columns   []string
	Rows      [][]string // "" cells with Null set are rendered as NULL
	Nulls     [][]bool
	Total     int
	Truncated bool
	Loadable  bool
}

// Layout wraps a page body in the common HTML shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`+
			`<style>body{font-family:sans-serif;margin:2rem}table{border-collapse:collapse}`+
			`td,th{border:1px solid #ccc;padding:.25rem .5rem;text-align:left}.null{color:#999;font-style:italic}`+
			`.alert{border:1px solid #c00;padding:1rem;color:#900}</style></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// TableList renders the catalog as a table of links.
func TableList(cards []TableCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Spreadsheet tables</h1>`); err != nil {
			return err
		}
		if len(cards) == 0 {
			_, err := io.WriteString(w, `<p>No tables configured. Set TABLES_FILE to a catalog file.</p>`)
			return err
		}
		io.WriteString(w, `<table><thead><tr><th>Table</th><th>Spreadsheet</th><th>Sheet</th><th>Columns</th><th>Target</th></tr></thead><tbody>`)
		for _, c := range cards {
			fmt.Fprintf(w, `<tr><td><a href="/tables/%s">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`,
				templ.EscapeString(c.Key),
				templ.EscapeString(c.Label),
				templ.EscapeString(c.SpreadSheetID),
				templ.EscapeString(c.SheetID),
				c.Columns,
				templ.EscapeString(c.TargetTable),
			)
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

// TableView renders a table preview.
func TableView(p TableViewParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>%s</h1><p>Showing %d of %d rows`,
			templ.EscapeString(p.Label), len(p.Rows), p.Total)
		if p.Truncated {
			io.WriteString(w, ` (truncated)`)
		}
		io.WriteString(w, `.</p>`)
		if p.Loadable {
			fmt.Fprintf(w, `<form method="post" action="/api/tables/%s/load"><button type="submit">Load into database</button></form>`,
				templ.EscapeString(p.Key))
		}

		io.WriteString(w, `<table><thead><tr>`)
		for _, c := range p.Columns {
			fmt.Fprintf(w, `<th>%s</th>`, templ.EscapeString(c))
		}
		io.WriteString(w, `</tr></thead><tbody>`)
		for i, row := range p.Rows {
			io.WriteString(w, `<tr>`)
			for j, cell := range row {
				if i < len(p.Nulls) && j < len(p.Nulls[i]) && p.Nulls[i][j] {
					io.WriteString(w, `<td class="null">NULL</td>`)
					continue
				}
				fmt.Fprintf(w, `<td>%s</td>`, templ.EscapeString(cell))
			}
			io.WriteString(w, `</tr>`)
		}
		_, err := io.WriteString(w, `</tbody></table><p><a href="/">All tables</a></p>`)
		return err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong><p>%s</p><small>Code: %s</small></div>`,
			templ.EscapeString(message),
			templ.EscapeString(action),
			templ.EscapeString(code),
		)
		return err
	})
}

// FormatCell renders a plain cell value for display.
func FormatCell(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case int64:
		return strconv.FormatInt(val, 10), false
	case string:
		return val, false
	default:
		return fmt.Sprint(val), false
	}
}
