package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/coregx/ntfy/model"
)

const dateLayout = "2006-01-02 15:04:05"

// printer renders messages for the subscribe command.
type printer struct {
	w       io.Writer
	width   int
	verbose bool
	title   *color.Color
}

func newPrinter(w io.Writer, width int, verbose bool) *printer {
	return &printer{
		w:       w,
		width:   width,
		verbose: verbose,
		title:   color.New(color.FgGreen, color.Bold),
	}
}

// print writes a header with title and date, the wrapped body and, in
// verbose mode, a table of the remaining fields.
func (p *printer) print(m model.Message) {
	date := time.Unix(m.Time, 0).Format(dateLayout)
	title := runewidth.Truncate(m.Title, max(p.width-len(date)-4, 3), "...")
	pad := max(p.width-runewidth.StringWidth(title)-len(date), 1)

	_, _ = fmt.Fprintln(p.w)
	_, _ = p.title.Fprintln(p.w, title+strings.Repeat(" ", pad)+date)
	_, _ = p.title.Fprintln(p.w, strings.Repeat("=", p.width))
	_, _ = fmt.Fprintln(p.w)
	_, _ = fmt.Fprintln(p.w, wrap(m.Message, p.width))

	if p.verbose {
		_, _ = fmt.Fprintln(p.w)
		p.details(m)
	}
}

func (p *printer) details(m model.Message) {
	table := tablewriter.NewWriter(p.w)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	table.Append([]string{"id", m.ID})
	table.Append([]string{"topic", m.Topic})
	table.Append([]string{"event", string(m.Event)})
	table.Append([]string{"received", humanize.Time(time.Unix(m.Time, 0))})
	if len(m.Tags) > 0 {
		table.Append([]string{"tags", strings.Join(m.Tags, ", ")})
	}
	if m.Priority != 0 {
		table.Append([]string{"priority", strconv.Itoa(m.Priority)})
	}
	if m.Click != "" {
		table.Append([]string{"click", m.Click})
	}
	if len(m.Actions) > 0 {
		lines := make([]string, len(m.Actions))
		for i, a := range m.Actions {
			lines[i] = a.String()
		}
		table.Append([]string{"actions", strings.Join(lines, "\n")})
	}
	if a := m.Attachment; a != nil {
		table.Append([]string{"attachment", a.Name})
		table.Append([]string{"url", a.URL})
		if a.Type != "" {
			table.Append([]string{"type", a.Type})
		}
		if a.Size > 0 {
			table.Append([]string{"size", humanize.Bytes(uint64(a.Size))})
		}
		if a.Expires > 0 {
			table.Append([]string{"expires", humanize.Time(time.Unix(a.Expires, 0))})
		}
	}

	table.Render()
}

// wrap breaks s into lines of at most width runes, on spaces where
// possible. Existing line breaks are kept.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		n := 0
		for j, word := range strings.Fields(line) {
			r := []rune(word)
			if j > 0 {
				if n+1+len(r) > width {
					b.WriteByte('\n')
					n = 0
				} else {
					b.WriteByte(' ')
					n++
				}
			}
			for len(r) > width-n {
				b.WriteString(string(r[:width-n]))
				b.WriteByte('\n')
				r = r[width-n:]
				n = 0
			}
			b.WriteString(string(r))
			n += len(r)
		}
	}
	return b.String()
}
