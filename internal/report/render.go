// Chart rendering for parsed trial logs
package report

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"clocksim/internal/analysis"
)

//go:embed templates/chart.svg.tmpl templates/bars.svg.tmpl templates/index.html.tmpl
var content embed.FS

var tpl = template.Must(template.New("charts").Funcs(template.FuncMap{
	"legendY":      func(i int) int { return 52 + i*18 },
	"legendLabelY": func(i int) int { return 62 + i*18 },
	"legendTextX":  func(x int) int { return x + 18 },
	"sub":          func(a, b int) int { return a - b },
}).ParseFS(content, "templates/*.tmpl"))

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
	"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
}

const (
	chartWidth   = 900
	chartHeight  = 480
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 40
	marginBottom = 40
)

type chartSeries struct {
	Label  string
	Color  string
	Points string
}

type chartData struct {
	Title  string
	Width  int
	Height int
	XAxisY int
	YAxisX int
	MaxX   string
	MaxY   string
	Series []chartSeries
}

type bar struct {
	Label  string
	Color  string
	X      int
	Y      int
	Width  int
	Height int
	Value  string
}

type barData struct {
	Title  string
	Width  int
	Height int
	XAxisY int
	YAxisX int
	Bars   []bar
}

type indexData struct {
	Charts []string
	Trials int
}

// Render writes the chart set for a run's parsed series into outDir:
// logical clock progression, queue length over time, and average
// inter-event time per VM per trial, plus an index page.
func Render(series []analysis.Series, outDir string) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to render")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	charts := map[string]any{
		"logical_clock.svg":   clockChart(series),
		"queue_length.svg":    queueChart(series),
		"avg_inter_event.svg": interEventChart(series),
	}
	for name, data := range charts {
		tmplName := "chart.svg.tmpl"
		if _, ok := data.(barData); ok {
			tmplName = "bars.svg.tmpl"
		}
		if err := renderFile(filepath.Join(outDir, name), tmplName, data); err != nil {
			return err
		}
	}

	trials := make(map[int]bool)
	for _, s := range series {
		trials[s.Trial] = true
	}
	idx := indexData{Trials: len(trials)}
	for name := range charts {
		idx.Charts = append(idx.Charts, name)
	}
	return renderFile(filepath.Join(outDir, "index.html"), "index.html.tmpl", idx)
}

func renderFile(path, tmplName string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := tpl.ExecuteTemplate(f, tmplName, data); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func seriesLabel(s analysis.Series) string {
	return fmt.Sprintf("Trial %d - VM %d", s.Trial, s.VMID)
}

func colorFor(i int) string {
	return palette[i%len(palette)]
}

// clockChart plots logical clock value against relative time.
func clockChart(series []analysis.Series) chartData {
	var maxT, maxC float64
	for _, s := range series {
		for i := range s.RelTimes {
			if s.RelTimes[i] > maxT {
				maxT = s.RelTimes[i]
			}
			if float64(s.Clocks[i]) > maxC {
				maxC = float64(s.Clocks[i])
			}
		}
	}
	c := newChart("Logical Clock Progression over Time", maxT, maxC)
	for i, s := range series {
		var b strings.Builder
		for j := range s.RelTimes {
			writePoint(&b, s.RelTimes[j], float64(s.Clocks[j]), maxT, maxC)
		}
		c.Series = append(c.Series, chartSeries{
			Label:  seriesLabel(s),
			Color:  colorFor(i),
			Points: b.String(),
		})
	}
	return c
}

// queueChart plots queue length for RECEIVE events only.
func queueChart(series []analysis.Series) chartData {
	var maxT, maxQ float64
	for _, s := range series {
		for i := range s.RelTimes {
			if s.QueueLens[i] < 0 {
				continue
			}
			if s.RelTimes[i] > maxT {
				maxT = s.RelTimes[i]
			}
			if float64(s.QueueLens[i]) > maxQ {
				maxQ = float64(s.QueueLens[i])
			}
		}
	}
	c := newChart("Queue Length over Time", maxT, maxQ)
	for i, s := range series {
		var b strings.Builder
		for j := range s.RelTimes {
			if s.QueueLens[j] < 0 {
				continue
			}
			writePoint(&b, s.RelTimes[j], float64(s.QueueLens[j]), maxT, maxQ)
		}
		if b.Len() == 0 {
			continue
		}
		c.Series = append(c.Series, chartSeries{
			Label:  seriesLabel(s),
			Color:  colorFor(i),
			Points: b.String(),
		})
	}
	return c
}

// interEventChart draws the average inter-event gap as one bar per
// VM per trial.
func interEventChart(series []analysis.Series) barData {
	var maxAvg float64
	for _, s := range series {
		if s.AvgInterEvent > maxAvg {
			maxAvg = s.AvgInterEvent
		}
	}
	d := barData{
		Title:  "Average Inter-Event Time per VM per Trial",
		Width:  chartWidth,
		Height: chartHeight,
		XAxisY: chartHeight - marginBottom,
		YAxisX: marginLeft,
	}
	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom
	if len(series) == 0 || maxAvg == 0 {
		return d
	}
	slot := plotW / len(series)
	barW := slot * 3 / 4
	for i, s := range series {
		h := int(s.AvgInterEvent / maxAvg * float64(plotH))
		d.Bars = append(d.Bars, bar{
			Label:  seriesLabel(s),
			Color:  colorFor(i),
			X:      marginLeft + i*slot + (slot-barW)/2,
			Y:      chartHeight - marginBottom - h,
			Width:  barW,
			Height: h,
			Value:  fmt.Sprintf("%.3fs", s.AvgInterEvent),
		})
	}
	return d
}

func newChart(title string, maxX, maxY float64) chartData {
	return chartData{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxisY: chartHeight - marginBottom,
		YAxisX: marginLeft,
		MaxX:   fmt.Sprintf("%.1fs", maxX),
		MaxY:   fmt.Sprintf("%.0f", maxY),
	}
}

func writePoint(b *strings.Builder, x, y, maxX, maxY float64) {
	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBottom)
	px := float64(marginLeft)
	if maxX > 0 {
		px += x / maxX * plotW
	}
	py := float64(chartHeight - marginBottom)
	if maxY > 0 {
		py -= y / maxY * plotH
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "%.1f,%.1f", px, py)
}
