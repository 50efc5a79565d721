package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/measure"
)

// DevicesMain is wrapped by NewDevicesCommand and only exported for testing
// purposes.
type DevicesMain struct {
	ClientConfig `flag:"!embed"`

	Facility string `help:"Name of the facility."`
	PageSize int    `help:"Page size for the device listing."`
	Out      string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewDevicesMain gets a DevicesMain with the default configuration.
func NewDevicesMain() *DevicesMain {
	return &DevicesMain{
		ClientConfig: NewClientConfig(),
		PageSize:     20,
	}
}

// Run lists the devices of the facility.
func (m *DevicesMain) Run() error {
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

	f, err := measure.Devices(ctx, client, table, m.Facility, m.PageSize)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewDevicesCommand returns a new cobra command wrapping DevicesMain.
func NewDevicesCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewDevicesMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "devices",
		Short: "devices - list the devices of a facility",
		Long:  `List the devices attached to a facility.`,
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
	subcommandFns["devices"] = NewDevicesCommand
}
