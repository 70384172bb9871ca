package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zachspang/asciimovie/internal/movie"
)

// writeInfo prints a key/value table describing doc.
func writeInfo(w io.Writer, path string, doc *movie.Document) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	charset := doc.Charset
	if charset == "" {
		charset = "-"
	}
	duration := time.Duration(float64(len(doc.Frames)) / doc.FPS * float64(time.Second))

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Property", "Value"})
	tw.AppendRows([]table.Row{
		{"File", path},
		{"Size", humanize.Bytes(uint64(stat.Size()))},
		{"FPS", strconv.FormatFloat(doc.FPS, 'f', -1, 64)},
		{"Frames", humanize.Comma(int64(len(doc.Frames)))},
		{"Duration", duration.Round(time.Millisecond).String()},
		{"Width", strconv.Itoa(doc.Width)},
		{"Height", strconv.Itoa(doc.Height)},
		{"Charset", charset},
		{"Color", strconv.FormatBool(doc.Color)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	_, err = fmt.Fprintln(w, tw.Render())
	return err
}
