package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
)

// ExperimentsMain is wrapped by NewExperimentsCommand and only exported for
// testing purposes.
type ExperimentsMain struct {
	ClientConfig `flag:"!embed"`

	Species     string `help:"Filter by species URI."`
	Project     string `help:"Filter by project URI."`
	ActiveDate  string `help:"Keep experiments running on this day (YYYY-MM-DD)."`
	SpeciesName string `help:"Filter by species label (case insensitive substring)."`
	ProjectName string `help:"Filter by project label (case insensitive substring)."`
	Out         string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewExperimentsMain gets an ExperimentsMain with the default configuration.
func NewExperimentsMain() *ExperimentsMain {
	return &ExperimentsMain{ClientConfig: NewClientConfig()}
}

// Run lists the experiments.
func (m *ExperimentsMain) Run() error {
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

	f, err := experiment.List(ctx, client, table, experiment.ListOptions{
		SpeciesURI:  m.Species,
		ProjectURI:  m.Project,
		ActiveDate:  m.ActiveDate,
		SpeciesName: m.SpeciesName,
		ProjectName: m.ProjectName,
	})
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewExperimentsCommand returns a new cobra command wrapping ExperimentsMain.
func NewExperimentsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewExperimentsMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "experiments",
		Short: "experiments - list experiments",
		Long:  `List the experiments of the instance, optionally filtered by species, project, or active date.`,
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
	subcommandFns["experiments"] = NewExperimentsCommand
}
