package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"go.trai.ch/stow/internal/app"
)

var (
	colorIris   = lipgloss.Color("#5D3FD3")
	colorSlate  = lipgloss.Color("#667085")
	colorOrange = lipgloss.Color("214")

	headingStyle = lipgloss.NewStyle().Foreground(colorIris).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorSlate).Width(12)
	changedStyle = lipgloss.NewStyle().Foreground(colorOrange)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func field(s *strings.Builder, label, value string) {
	s.WriteString(labelStyle.Render(label) + value + "\n")
}

func renderStatus(r *app.StatusReport) string {
	var s strings.Builder
	s.WriteString(headingStyle.Render("Cache") + "\n")
	field(&s, "directory", r.CacheDir)
	field(&s, "type", string(r.Type))
	field(&s, "storage", string(r.Storage))
	field(&s, "files", strconv.Itoa(r.Files))
	field(&s, "size", humanBytes(r.Bytes))

	if len(r.Modified) == 0 && len(r.Deleted) == 0 {
		s.WriteString("\nup to date\n")
		return s.String()
	}
	s.WriteString("\n" + headingStyle.Render("Changes") + "\n")
	for _, path := range r.Modified {
		s.WriteString(changedStyle.Render("modified") + "  " + path + "\n")
	}
	for _, path := range r.Deleted {
		s.WriteString(changedStyle.Render("deleted ") + "  " + path + "\n")
	}
	return s.String()
}

func renderInspect(r *app.InspectReport) string {
	var s strings.Builder
	s.WriteString(headingStyle.Render("Module graph") + "\n")
	field(&s, "directory", r.CacheDir)
	field(&s, "modules", strconv.Itoa(len(r.Modules)))
	field(&s, "files", strconv.Itoa(r.TrackedFiles))
	field(&s, "next id", strconv.FormatUint(uint64(r.NextDependencyID), 10))
	if r.FailedDependencies > 0 {
		field(&s, "failed deps", changedStyle.Render(strconv.Itoa(r.FailedDependencies)))
	}
	for _, id := range r.FailedModules {
		field(&s, "failed", changedStyle.Render(id))
	}

	if len(r.Modules) == 0 {
		return s.String()
	}

	rows := make([][]string, 0, len(r.Modules))
	for _, m := range r.Modules {
		rows = append(rows, []string{
			m.Identifier,
			m.Kind,
			strconv.FormatUint(uint64(m.Depth), 10),
			strconv.Itoa(m.Dependencies),
			strconv.Itoa(m.Outgoing),
			strconv.Itoa(m.Incoming),
			m.Issuer,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSlate)).
		Headers("MODULE", "KIND", "DEPTH", "DEPS", "OUT", "IN", "ISSUER").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headingStyle.Padding(0, 1)
			}
			return cellStyle
		})

	s.WriteString("\n" + t.String() + "\n")
	return s.String()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
