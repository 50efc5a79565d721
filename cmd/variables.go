package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
)

// VariablesMain is wrapped by NewVariablesCommand and only exported for
// testing purposes.
type VariablesMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string `help:"Name of the experiment."`
	PageSize   int    `help:"Page size for the variable listing."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewVariablesMain gets a VariablesMain with the default configuration.
func NewVariablesMain() *VariablesMain {
	return &VariablesMain{
		ClientConfig: NewClientConfig(),
		PageSize:     20,
	}
}

// Run lists the variables with associated data for the experiment.
func (m *VariablesMain) Run() error {
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

	f, err := experiment.Variables(ctx, client, table, m.Experiment, m.PageSize)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewVariablesCommand returns a new cobra command wrapping VariablesMain.
func NewVariablesCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewVariablesMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "variables",
		Short: "variables - list the variables of an experiment",
		Long:  `List the variables with associated data for an experiment, including entity, characteristic, method and unit names.`,
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
	subcommandFns["variables"] = NewVariablesCommand
}
