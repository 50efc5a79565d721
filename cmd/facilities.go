package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
)

// FacilitiesMain is wrapped by NewFacilitiesCommand and only exported for
// testing purposes.
type FacilitiesMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string `help:"Name of the experiment."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewFacilitiesMain gets a FacilitiesMain with the default configuration.
func NewFacilitiesMain() *FacilitiesMain {
	return &FacilitiesMain{ClientConfig: NewClientConfig()}
}

// Run lists the facilities used by the experiment.
func (m *FacilitiesMain) Run() error {
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

	f, err := experiment.Facilities(ctx, client, table, m.Experiment)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewFacilitiesCommand returns a new cobra command wrapping FacilitiesMain.
func NewFacilitiesCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewFacilitiesMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "facilities",
		Short: "facilities - list the facilities of an experiment",
		Long:  `List the facilities used by an experiment, with their types, geometry, and geohash for point locations.`,
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
	subcommandFns["facilities"] = NewFacilitiesCommand
}
