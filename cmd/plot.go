package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/measure"
	"github.com/phenotools/silexplorer/plot"
	"github.com/phenotools/silexplorer/sciobject"
)

// PlotMain is wrapped by NewPlotCommand and only exported for testing
// purposes.
type PlotMain struct {
	ClientConfig `flag:"!embed"`

	Experiment  string `help:"Name of the experiment."`
	Type        string `help:"Scientific object type name."`
	Group1      string `help:"Identifier of the first replicate group."`
	Group2      string `help:"Identifier of the second replicate group."`
	Factor      string `help:"Factor column labelling the groups in the charts."`
	ChunkSize   int    `help:"Object URIs per data query."`
	Concurrency int    `help:"Parallel data queries."`
	OutDir      string `help:"Directory for data.csv and the charts."`

	stderr io.Writer
}

// NewPlotMain gets a PlotMain with the default configuration.
func NewPlotMain() *PlotMain {
	return &PlotMain{
		ClientConfig: NewClientConfig(),
		ChunkSize:    40,
		Concurrency:  5,
		OutDir:       "output",
	}
}

// Run compares two replicate groups: fetches their measurement data and
// renders one chart per variable plus the combined data.csv.
func (m *PlotMain) Run() error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	client, table, err := m.connect(ctx, log)
	if err != nil {
		return err
	}

	objects, err := sciobject.List(ctx, client, table, sciobject.Query{
		Experiment: m.Experiment,
		TypeName:   m.Type,
	}, sciobject.OptLogger(log))
	if err != nil {
		return err
	}
	groups, _ := sciobject.Replicates(objects)

	fetcher := measure.NewFetcher(
		measure.OptChunkSize(m.ChunkSize),
		measure.OptConcurrency(m.Concurrency),
		measure.OptStats(m.stderr),
	)

	vars, err := experiment.Variables(ctx, client, table, m.Experiment, 20)
	if err != nil {
		return err
	}

	cmp := plot.NewComparison()
	for _, id := range []string{m.Group1, m.Group2} {
		group, err := sciobject.ExtractGroup(groups, id)
		if err != nil {
			return err
		}
		series, err := fetcher.ByObjects(ctx, client, table, m.Experiment, group, vars)
		if err != nil {
			return errors.Wrapf(err, "fetching data of group %s", id)
		}
		plot.AppendSeries(cmp, m.groupLabel(group, id), series)
	}

	if err := plot.Compare(cmp, m.OutDir); err != nil {
		return err
	}
	return m.finish(table)
}

// groupLabel names a group after its factor level when the factor column
// exists, falling back to the group identifier.
func (m *PlotMain) groupLabel(group *frame.Frame, id string) string {
	if m.Factor != "" && group.HasColumn(m.Factor) && group.Len() > 0 {
		return m.Factor + " " + group.Cell(0, m.Factor)
	}
	return id
}

// NewPlotCommand returns a new cobra command wrapping PlotMain.
func NewPlotCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewPlotMain()
	main.stderr = stderr
	com := &cobra.Command{
		Use:   "plot",
		Short: "plot - compare two replicate groups over time",
		Long: `Fetch the measurement data of two replicate groups and render, per
variable, the individual object traces and the group mean curves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return main.Run()
		},
	}
	err := commandeer.Flags(com.Flags(), main)
	if err != nil {
		panic(err)
	}
	return com
}

func init() {
	subcommandFns["plot"] = NewPlotCommand
}
