package plot

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/phenotools/silexplorer/frame"
)

// NewComparison returns an empty long-form frame for group comparisons:
// one row per measurement with columns Date, URI, Group, Variable, Value.
func NewComparison() *frame.Frame {
	return frame.New("Date", "URI", "Group", "Variable", "Value")
}

// AppendSeries flattens one group's per-variable series map into the
// comparison frame.
func AppendSeries(cmp *frame.Frame, group string, series map[string]*frame.Frame) {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := series[name]
		for i := 0; i < f.Len(); i++ {
			r := cmp.Append()
			cmp.Set(r, "Date", f.Cell(i, "Date"))
			cmp.Set(r, "URI", f.Cell(i, "URI"))
			cmp.Set(r, "Group", group)
			cmp.Set(r, "Variable", name)
			cmp.Set(r, "Value", f.Cell(i, name))
		}
	}
}

// Compare writes the comparison frame to <dir>/data.csv and renders one
// chart per variable: thin per-object lines plus a thick mean line per
// group.
func Compare(cmp *frame.Frame, dir string) error {
	if cmp == nil || cmp.Len() == 0 {
		return errors.New("no comparison data")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	if err := cmp.WriteFile(filepath.Join(dir, "data.csv")); err != nil {
		return errors.Wrap(err, "writing data.csv")
	}

	for _, variable := range distinct(cmp, "Variable") {
		sub := cmp.Filter(func(row map[string]string) bool {
			return row["Variable"] == variable
		})
		if err := compareChart(sub, variable, filepath.Join(dir, variable+".png")); err != nil {
			return errors.Wrapf(err, "charting %s", variable)
		}
	}
	return nil
}

func compareChart(sub *frame.Frame, variable, path string) error {
	p := newTimePlot(variable, variable)

	groups := distinct(sub, "Group")
	groupIdx := map[string]int{}
	for i, g := range groups {
		groupIdx[g] = i
	}

	// thin per-object traces colored by group
	for _, uri := range distinct(sub, "URI") {
		pts, _ := seriesPoints(sub, uri, "Value")
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(toXYs(pts))
		if err != nil {
			return errors.Wrapf(err, "line for %s", uri)
		}
		g := groupOf(sub, uri)
		line.Color = plotutil.Color(groupIdx[g])
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	// thick mean line per group
	for i, g := range groups {
		pts := groupMeans(sub, g)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(toXYs(pts))
		if err != nil {
			return errors.Wrapf(err, "mean line for %s", g)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(3)
		p.Add(line)
		p.Legend.Add(g, line)
	}
	p.Legend.Top = true

	return errors.Wrap(p.Save(10*vg.Inch, 6*vg.Inch, path), "saving plot")
}

func groupOf(sub *frame.Frame, uri string) string {
	for i := 0; i < sub.Len(); i++ {
		if sub.Cell(i, "URI") == uri {
			return sub.Cell(i, "Group")
		}
	}
	return ""
}

// groupMeans averages Value per date over one group's rows.
func groupMeans(sub *frame.Frame, group string) []point {
	sums := map[int64]float64{}
	counts := map[int64]int{}
	stamps := map[int64]time.Time{}
	for i := 0; i < sub.Len(); i++ {
		if sub.Cell(i, "Group") != group {
			continue
		}
		t, err := parseTime(sub.Cell(i, "Date"))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(sub.Cell(i, "Value"), 64)
		if err != nil {
			continue
		}
		k := t.Unix()
		sums[k] += v
		counts[k]++
		stamps[k] = t
	}

	pts := make([]point, 0, len(sums))
	for k, sum := range sums {
		pts = append(pts, point{t: stamps[k], v: sum / float64(counts[k])})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t.Before(pts[j].t) })
	return pts
}
