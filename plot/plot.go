// Package plot renders measurement series as time charts. Complete series
// are drawn as lines, series with unparseable or missing values fall back
// to scatter points. Output format follows the file extension (.png, .svg,
// .pdf).
package plot

import (
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/phenotools/silexplorer/frame"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized date: %q", s)
}

type point struct {
	t time.Time
	v float64
}

// seriesPoints collects the parseable points of one URI, sorted by time.
// complete is false when any row of the URI failed to parse.
func seriesPoints(f *frame.Frame, uri, valueCol string) (pts []point, complete bool) {
	complete = true
	for i := 0; i < f.Len(); i++ {
		if f.Cell(i, "URI") != uri {
			continue
		}
		t, err := parseTime(f.Cell(i, "Date"))
		if err != nil {
			complete = false
			continue
		}
		v, err := strconv.ParseFloat(f.Cell(i, valueCol), 64)
		if err != nil {
			complete = false
			continue
		}
		pts = append(pts, point{t: t, v: v})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t.Before(pts[j].t) })
	return pts, complete
}

func toXYs(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X = float64(pt.t.Unix())
		xys[i].Y = pt.v
	}
	return xys
}

func distinct(f *frame.Frame, col string) []string {
	seen := map[string]bool{}
	var vals []string
	for i := 0; i < f.Len(); i++ {
		v := f.Cell(i, col)
		if seen[v] {
			continue
		}
		seen[v] = true
		vals = append(vals, v)
	}
	return vals
}

func newTimePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	return p
}

// Series draws one time series per object URI of a per-variable frame
// (columns URI, <variable>, Date) and saves the chart to path.
func Series(f *frame.Frame, variable, path string) error {
	if f == nil || !f.HasColumn(variable) {
		return errors.Errorf("frame missing column %q", variable)
	}

	p := newTimePlot(variable, variable)
	for i, uri := range distinct(f, "URI") {
		pts, complete := seriesPoints(f, uri, variable)
		if len(pts) == 0 {
			continue
		}
		xys := toXYs(pts)
		if complete {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return errors.Wrapf(err, "line for %s", uri)
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(uri, line)
		} else {
			scatter, err := plotter.NewScatter(xys)
			if err != nil {
				return errors.Wrapf(err, "scatter for %s", uri)
			}
			scatter.Color = plotutil.Color(i)
			p.Add(scatter)
			p.Legend.Add(uri, scatter)
		}
	}
	p.Legend.Top = true

	return errors.Wrap(p.Save(10*vg.Inch, 6*vg.Inch, path), "saving plot")
}
