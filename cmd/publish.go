package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phenotools/silexplorer/measure"
	"github.com/phenotools/silexplorer/stream"
)

// PublishMain is wrapped by NewPublishCommand and only exported for testing
// purposes.
type PublishMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string   `help:"Name of the experiment."`
	Type       string   `help:"Scientific object type name."`
	Hosts      []string `help:"Kafka broker addresses."`
	Topic      string   `help:"Kafka topic to publish to."`
}

// NewPublishMain gets a PublishMain with the default configuration.
func NewPublishMain() *PublishMain {
	return &PublishMain{
		ClientConfig: NewClientConfig(),
		Hosts:        []string{"localhost:9092"},
		Topic:        "measurements",
	}
}

// Run retrieves the experiment's measurement records and publishes them to
// Kafka.
func (m *PublishMain) Run() error {
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

	records, err := measure.Records(ctx, client, table, measure.Query{
		Experiment: m.Experiment,
		TypeName:   m.Type,
	})
	if err != nil {
		return err
	}

	publisher, err := stream.NewPublisher(stream.OptHosts(m.Hosts), stream.OptTopic(m.Topic))
	if err != nil {
		return err
	}
	defer publisher.Close()

	if err := publisher.Publish(ctx, records); err != nil {
		return err
	}
	log.Info("published records", zap.Int("count", len(records)), zap.String("topic", m.Topic))
	return m.finish(table)
}

// NewPublishCommand returns a new cobra command wrapping PublishMain.
func NewPublishCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewPublishMain()
	com := &cobra.Command{
		Use:   "publish",
		Short: "publish - stream the measurement records of an experiment to Kafka",
		Long: `Retrieve the measurement records of an experiment's objects and publish
them to a Kafka topic, keyed by variable URI.`,
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
	subcommandFns["publish"] = NewPublishCommand
}
