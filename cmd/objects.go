package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/sciobject"
)

// ObjectsMain is wrapped by NewObjectsCommand and only exported for testing
// purposes.
type ObjectsMain struct {
	ClientConfig `flag:"!embed"`

	Experiment    string   `help:"Name of the experiment."`
	Type          string   `help:"Scientific object type name."`
	FactorLevel   string   `help:"Factor level URI filter applied server side."`
	Germplasm     string   `help:"Germplasm URI filter applied server side."`
	FactorLevels  []string `help:"Factor.Level pairs to filter the pivoted table."`
	GermplasmType string   `help:"Germplasm type to filter the pivoted table."`
	GermplasmName string   `help:"Germplasm name, used together with germplasm-type."`
	Out           string   `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewObjectsMain gets an ObjectsMain with the default configuration.
func NewObjectsMain() *ObjectsMain {
	return &ObjectsMain{ClientConfig: NewClientConfig()}
}

// Run lists the scientific objects with their pivoted factor levels and
// germplasm.
func (m *ObjectsMain) Run() error {
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

	f, err := sciobject.List(ctx, client, table, sciobject.Query{
		Experiment:     m.Experiment,
		TypeName:       m.Type,
		FactorLevelURI: m.FactorLevel,
		GermplasmURI:   m.Germplasm,
		FactorLevels:   m.FactorLevels,
		GermplasmType:  m.GermplasmType,
		GermplasmName:  m.GermplasmName,
	}, sciobject.OptLogger(log))
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewObjectsCommand returns a new cobra command wrapping ObjectsMain.
func NewObjectsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewObjectsMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "objects",
		Short: "objects - list the scientific objects of an experiment",
		Long: `List the scientific objects of an experiment as a wide table with one
column per factor and numbered germplasm columns, optionally filtered by
factor levels or germplasm.`,
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
	subcommandFns["objects"] = NewObjectsCommand
}
