package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/experiment"
)

// ObjectTypesMain is wrapped by NewObjectTypesCommand and only exported for
// testing purposes.
type ObjectTypesMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string `help:"Name of the experiment."`
	PageSize   int    `help:"Page size for the type listing."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewObjectTypesMain gets an ObjectTypesMain with the default
// configuration.
func NewObjectTypesMain() *ObjectTypesMain {
	return &ObjectTypesMain{
		ClientConfig: NewClientConfig(),
		PageSize:     20,
	}
}

// Run lists the scientific object types used in the experiment.
func (m *ObjectTypesMain) Run() error {
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

	f, err := experiment.ObjectTypes(ctx, client, table, m.Experiment, m.PageSize)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewObjectTypesCommand returns a new cobra command wrapping
// ObjectTypesMain.
func NewObjectTypesCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewObjectTypesMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "object-types",
		Short: "object-types - list the scientific object types of an experiment",
		Long:  `List the scientific object types used within an experiment.`,
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
	subcommandFns["object-types"] = NewObjectTypesCommand
}
