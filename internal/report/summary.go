package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"rpa-news-robot/internal/normalize"
	"rpa-news-robot/internal/scraper"
)

const titleWidth = 60

// RenderSummary prints the collected records and run statistics as tables.
func RenderSummary(w io.Writer, res *scraper.Result) {
	titles := normalize.NewNormalizer(normalize.Options{MaxPreviewChars: titleWidth})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Date", "Title", "Picture", "Count", "Money"})
	for i, rec := range res.Records {
		t.AppendRow(table.Row{
			i + 1,
			rec.Date.Format(dateLayout),
			titles.TruncatePreview(rec.Title),
			rec.PictureFilename,
			rec.SearchCount,
			rec.MoneyFound,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d records", len(res.Records)), "", "", ""})
	t.Render()

	s := res.Stats
	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.SetStyle(table.StyleLight)
	st.AppendRows([]table.Row{
		{"Cutoff", s.Cutoff.Format(dateLayout)},
		{"Pages", s.Pages},
		{"Entries read", s.Entries},
		{"Duplicates", s.Duplicates},
		{"Dropped", s.Dropped},
		{"Stale retries", s.StaleRetries},
		{"Discarded", s.Discarded},
		{"Stopped", s.StoppedReason},
	})
	st.Render()
}
