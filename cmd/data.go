package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/export"
	"github.com/phenotools/silexplorer/measure"
)

// DataMain is wrapped by NewDataCommand and only exported for testing
// purposes.
type DataMain struct {
	ClientConfig `flag:"!embed"`

	Experiment  string   `help:"Name of the experiment."`
	Type        string   `help:"Scientific object type name."`
	FactorLevel []string `help:"Factor level URIs to filter objects server side."`
	Germplasm   string   `help:"Germplasm URI to filter objects server side."`
	OutDir      string   `help:"Directory for the per-variable CSV files."`
	S3Bucket    string   `help:"Upload the CSVs to this S3 bucket instead of OutDir."`
	S3Region    string   `help:"AWS region of the S3 bucket."`
	S3Prefix    string   `help:"Key prefix for objects uploaded to S3."`
}

// NewDataMain gets a DataMain with the default configuration.
func NewDataMain() *DataMain {
	return &DataMain{
		ClientConfig: NewClientConfig(),
		OutDir:       "output",
		S3Region:     "us-east-1",
	}
}

func (m *DataMain) sink() (export.Sink, error) {
	if m.S3Bucket != "" {
		return export.NewS3Sink(m.S3Bucket,
			export.OptS3Region(m.S3Region),
			export.OptS3Prefix(m.S3Prefix))
	}
	return export.NewDirSink(m.OutDir), nil
}

// Run retrieves the experiment data and writes one CSV per variable.
func (m *DataMain) Run() error {
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

	series, err := measure.ByVariable(ctx, client, table, measure.Query{
		Experiment:      m.Experiment,
		TypeName:        m.Type,
		FactorLevelURIs: m.FactorLevel,
		GermplasmURI:    m.Germplasm,
	})
	if err != nil {
		return err
	}

	sink, err := m.sink()
	if err != nil {
		return err
	}
	if err := export.WriteSeries(sink, series); err != nil {
		return err
	}
	return m.finish(table)
}

// NewDataCommand returns a new cobra command wrapping DataMain.
func NewDataCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewDataMain()
	com := &cobra.Command{
		Use:   "data",
		Short: "data - export the measurement data of an experiment per variable",
		Long: `Retrieve the measurement data of an experiment's objects and write one
CSV per variable, either into a directory or an S3 bucket.`,
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
	subcommandFns["data"] = NewDataCommand
}
