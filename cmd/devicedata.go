package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/measure"
)

// DeviceDataMain is wrapped by NewDeviceDataCommand and only exported for
// testing purposes.
type DeviceDataMain struct {
	ClientConfig `flag:"!embed"`

	Device string `help:"Name of the device."`
	From   string `help:"Start date (ISO)."`
	To     string `help:"End date (ISO)."`
	Out    string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewDeviceDataMain gets a DeviceDataMain with the default configuration.
func NewDeviceDataMain() *DeviceDataMain {
	return &DeviceDataMain{ClientConfig: NewClientConfig()}
}

// Run retrieves everything the device measured.
func (m *DeviceDataMain) Run() error {
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

	f, err := measure.ByDevice(ctx, client, table, m.Device, m.From, m.To)
	if err != nil {
		return err
	}
	if err := writeFrame(f, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewDeviceDataCommand returns a new cobra command wrapping DeviceDataMain.
func NewDeviceDataCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewDeviceDataMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "device-data",
		Short: "device-data - retrieve the data measured by a device",
		Long:  `Retrieve the data a device measured, optionally bounded by dates.`,
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
	subcommandFns["device-data"] = NewDeviceDataCommand
}
