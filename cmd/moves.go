package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/sciobject"
)

// MovesMain is wrapped by NewMovesCommand and only exported for testing
// purposes.
type MovesMain struct {
	ClientConfig `flag:"!embed"`

	Object     string `help:"Name of the scientific object."`
	Experiment string `help:"Name of the experiment."`
	From       string `help:"Start date (ISO)."`
	To         string `help:"End date (ISO)."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewMovesMain gets a MovesMain with the default configuration.
func NewMovesMain() *MovesMain {
	return &MovesMain{ClientConfig: NewClientConfig()}
}

// Run retrieves the position history of the object.
func (m *MovesMain) Run() error {
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

	f, err := sciobject.Moves(ctx, client, table, m.Object, m.Experiment, m.From, m.To)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewMovesCommand returns a new cobra command wrapping MovesMain.
func NewMovesCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewMovesMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "moves",
		Short: "moves - show the position history of a scientific object",
		Long:  `Show where a scientific object moved during an experiment, with the begin and end timestamps of each position.`,
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
	subcommandFns["moves"] = NewMovesCommand
}
