package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/nvandessel/chunkgraph/internal/ingest"
	"github.com/nvandessel/chunkgraph/internal/store"
)

// Printer writes human-readable tables. Styling follows the capabilities of
// the destination, so pipes and buffers receive plain text.
type Printer struct {
	w     io.Writer
	title lipgloss.Style
	muted lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
		muted: r.NewStyle().Foreground(lipgloss.Color("#2C4A54")),
	}
}

// FormatNumber renders a float for tables: NaN as "n/a", +Inf as
// "unreachable", otherwise at most four decimals without trailing zeros.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "n/a"
	case math.IsInf(f, 1):
		return "unreachable"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func (p *Printer) heading(format string, args ...any) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) empty(msg string) {
	fmt.Fprintln(p.w, p.muted.Render(msg))
}

func (p *Printer) table(header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

// Chunks prints related chunks of start.
func (p *Printer) Chunks(start string, rows []ChunkRow) error {
	p.heading("Chunks related to %q (%d)", start, len(rows))
	if len(rows) == 0 {
		p.empty("  none")
		return nil
	}
	return p.table("CHUNK\tWEIGHT", func(tw *tabwriter.Writer) {
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\n", r.Node, FormatNumber(float64(r.Weight)))
		}
	})
}

// Distances prints a distance table under title.
func (p *Printer) Distances(title string, rows []DistanceRow) error {
	p.heading("%s (%d)", title, len(rows))
	if len(rows) == 0 {
		p.empty("  none")
		return nil
	}
	return p.table("CHUNK\tDISTANCE", func(tw *tabwriter.Writer) {
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\n", r.Node, FormatNumber(float64(r.Distance)))
		}
	})
}

// Metrics prints one row per center.
func (p *Printer) Metrics(rows []MetricRow) error {
	p.heading("Node metrics (%d)", len(rows))
	return p.table("CHUNK\tCONNECTED\tAVG@5\tAVG@10\tAVG@20", func(tw *tabwriter.Writer) {
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Node, r.ConnectedNodes,
				FormatNumber(float64(r.AvgDist5)), FormatNumber(float64(r.AvgDist10)), FormatNumber(float64(r.AvgDist20)))
		}
	})
}

// Stats prints edge weight statistics.
func (p *Printer) Stats(s StatsView) error {
	p.heading("Edge statistics")
	return p.table("EDGES\tMEAN\tMEDIAN", func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Count, FormatNumber(float64(s.Mean)), FormatNumber(float64(s.Median)))
	})
}

// Ingest prints an ingest summary.
func (p *Printer) Ingest(r ingest.Result) {
	p.heading("Ingested %d lines", r.Lines)
	fmt.Fprintf(p.w, "  chunks:          %d\n", r.Nodes)
	fmt.Fprintf(p.w, "  edges written:   %d\n", r.EdgesWritten)
	fmt.Fprintf(p.w, "  mirrors skipped: %d\n", r.MirrorsSkipped)
}

// Names prints a plain list of chunk names.
func (p *Printer) Names(title string, names []string) {
	p.heading("%s (%d)", title, len(names))
	if len(names) == 0 {
		p.empty("  none")
		return
	}
	for _, n := range names {
		fmt.Fprintf(p.w, "  %s\n", n)
	}
}

// Comparison prints metrics, per-center neighbourhoods and the induced
// subgraph.
func (p *Printer) Comparison(c ComparisonView) error {
	if err := p.Metrics(c.Metrics); err != nil {
		return err
	}
	for _, m := range c.Metrics {
		fmt.Fprintln(p.w)
		if err := p.Distances(fmt.Sprintf("Nearest to %q", m.Node), c.Nearest[m.Node]); err != nil {
			return err
		}
	}
	fmt.Fprintln(p.w)
	p.heading("Subgraph: %d chunks, %d edges", len(c.Nodes), len(c.Edges))
	edges := append([]EdgeRow(nil), c.Edges...)
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return p.edgeTable(edges)
}

// Edges prints an edge table under title, in the given order.
func (p *Printer) Edges(title string, rows []EdgeRow) error {
	p.heading("%s (%d)", title, len(rows))
	if len(rows) == 0 {
		p.empty("  none")
		return nil
	}
	return p.edgeTable(rows)
}

func (p *Printer) edgeTable(rows []EdgeRow) error {
	return p.table("SOURCE\tTARGET\tWEIGHT", func(tw *tabwriter.Writer) {
		for _, e := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Source, e.Target, FormatNumber(float64(e.Weight)))
		}
	})
}

// Rename prints a rename summary.
func (p *Printer) Rename(from, to string, r store.RenameResult) {
	if !r.Changed() {
		p.empty(fmt.Sprintf("No chunk names contain %q", from))
		return
	}
	p.heading("Renamed %q to %q", from, to)
	fmt.Fprintf(p.w, "  chunks renamed: %d\n", r.Nodes)
	fmt.Fprintf(p.w, "  edges renamed:  %d\n", r.Edges)
	fmt.Fprintf(p.w, "  edges merged:   %d\n", r.Merged)
}
