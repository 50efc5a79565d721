package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/export"
	"github.com/phenotools/silexplorer/measure"
)

// EnvMain is wrapped by NewEnvCommand and only exported for testing
// purposes.
type EnvMain struct {
	ClientConfig `flag:"!embed"`

	Facility  string   `help:"Name of the facility."`
	Variables []string `help:"Variable names to keep. All when empty."`
	From      string   `help:"Start date (YYYY-MM-DD)."`
	To        string   `help:"End date (YYYY-MM-DD)."`
	OutDir    string   `help:"Directory for the per-variable CSV files."`
}

// NewEnvMain gets an EnvMain with the default configuration.
func NewEnvMain() *EnvMain {
	return &EnvMain{
		ClientConfig: NewClientConfig(),
		OutDir:       "output",
	}
}

// Run exports the environmental data of a facility per variable.
func (m *EnvMain) Run() error {
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

	series, err := measure.Environment(ctx, client, table, m.Facility, m.Variables, m.From, m.To)
	if err != nil {
		return err
	}
	if err := export.WriteSeries(export.NewDirSink(m.OutDir), series); err != nil {
		return err
	}
	return m.finish(table)
}

// NewEnvCommand returns a new cobra command wrapping EnvMain.
func NewEnvCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewEnvMain()
	com := &cobra.Command{
		Use:   "env",
		Short: "env - export the environmental data of a facility",
		Long: `Retrieve the environmental data measured at a facility in a date range
and write one CSV per variable, with the measuring device on each row.`,
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
	subcommandFns["env"] = NewEnvCommand
}
