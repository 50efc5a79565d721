package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
)

// FactorLevelsMain is wrapped by NewFactorLevelsCommand and only exported
// for testing purposes.
type FactorLevelsMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string `help:"Name of the experiment."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewFactorLevelsMain gets a FactorLevelsMain with the default
// configuration.
func NewFactorLevelsMain() *FactorLevelsMain {
	return &FactorLevelsMain{ClientConfig: NewClientConfig()}
}

// Run lists the factors of the experiment with their levels.
func (m *FactorLevelsMain) Run() error {
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

	f, err := experiment.FactorLevels(ctx, client, table, m.Experiment)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewFactorLevelsCommand returns a new cobra command wrapping
// FactorLevelsMain.
func NewFactorLevelsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewFactorLevelsMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "factor-levels",
		Short: "factor-levels - list the factors and levels of an experiment",
		Long:  `List the factors studied by an experiment along with each factor's levels.`,
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
	subcommandFns["factor-levels"] = NewFactorLevelsCommand
}
