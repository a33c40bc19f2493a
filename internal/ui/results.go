package ui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TimestampFormat is how time-valued cells render in table output.
const TimestampFormat = "2006-01-02 15:04:05"

// RenderResultsTable renders query results as a borderless aligned
// table: an accent header row, muted row separators, cells capped to
// the terminal width.
func RenderResultsTable(display *DisplayContext, columns []string, rows [][]interface{}) string {
	if len(rows) == 0 {
		return ""
	}

	maxCell := display.AvailableWidth(4) / len(columns)
	if maxCell < 8 {
		maxCell = 8
	}

	tableRows := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j := range columns {
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			cells[j] = TruncateWithEllipsis(FormatValue(v), maxCell)
		}
		tableRows[i] = cells
	}

	tbl := table.New().
		Border(lipgloss.Border{
			Top:    "─",
			Bottom: "─",
			Left:   "",
			Right:  "",
			Middle: "─",
		}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(true).
		BorderStyle(Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if row == table.HeaderRow {
				style = AccentBold
			}
			if col < len(columns)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Headers(columns...).
		Rows(tableRows...)

	return tbl.Render()
}

// RenderResultsList renders rows as plain tab-separated lines with no
// styling, suitable for piping into other tools.
func RenderResultsList(columns []string, rows [][]interface{}) string {
	var sb strings.Builder
	for _, row := range rows {
		cells := make([]string, len(columns))
		for j := range columns {
			if j < len(row) {
				cells[j] = FormatValue(row[j])
			}
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatValue renders a single result cell. Times use TimestampFormat,
// JSON array cells collapse to comma-joined values, nil renders empty.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format(TimestampFormat)
	case string:
		if joined, ok := joinJSONArray(val); ok {
			return joined
		}
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// joinJSONArray collapses a JSON string-array cell ("tags", "links")
// into comma-joined values for display.
func joinJSONArray(s string) (string, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", false
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return "", false
	}
	return strings.Join(items, ", "), true
}

// TruncateWithEllipsis truncates a string to maxLen, adding ellipsis if needed.
// It tries to break at word boundaries.
func TruncateWithEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}

	truncated := s[:maxLen-3]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
