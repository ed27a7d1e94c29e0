package render

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

const activityLayout = "2006-01-02 15:04:05"

// Table writes rows as a bordered table
func Table(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
}

// RenderIndex lists conversations, newest first. The newest row is marked.
func RenderIndex(w io.Writer, summaries []types.ConversationSummary) {
	rows := make([][]string, 0, len(summaries))
	for i, s := range summaries {
		marker := ""
		if i == 0 {
			marker = "→"
		}
		rows = append(rows, []string{
			marker,
			s.ID,
			s.LatestActivity.Local().Format(activityLayout),
			strconv.Itoa(s.FileCount),
		})
	}
	Table(w, []string{"", "Conversation", "Last Activity", "Files"}, rows)
}
