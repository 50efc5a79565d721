// Package stream publishes measurement records to Kafka so downstream
// pipelines can consume retrievals as they happen.
package stream

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"github.com/phenotools/silexplorer/measure"
)

// JSONData implements the sarama.Encoder interface for measure.Data using
// json.
type JSONData measure.Data

// Encode marshals the record to json.
func (d JSONData) Encode() ([]byte, error) {
	return json.Marshal(measure.Data(d))
}

// Length returns the length of the marshalled json.
func (d JSONData) Length() int {
	bytes, _ := d.Encode()
	return len(bytes)
}

// PublisherOption is a functional option type for Publisher.
type PublisherOption func(p *Publisher)

// OptHosts sets the Kafka broker addresses.
func OptHosts(hosts []string) PublisherOption {
	return func(p *Publisher) {
		p.hosts = hosts
	}
}

// OptTopic sets the topic records are published to.
func OptTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		p.topic = topic
	}
}

// Publisher sends measurement records to a Kafka topic, keyed by variable
// URI so one variable's readings stay in one partition.
type Publisher struct {
	hosts []string
	topic string

	producer sarama.SyncProducer
}

// NewPublisher connects a Publisher with the options applied.
func NewPublisher(opts ...PublisherOption) (*Publisher, error) {
	p := &Publisher{
		hosts: []string{"localhost:9092"},
		topic: "measurements",
	}
	for _, opt := range opts {
		opt(p)
	}
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(p.hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	p.producer = producer
	return p, nil
}

// Publish sends the records, stopping at the first send error or context
// cancellation.
func (p *Publisher) Publish(ctx context.Context, records []measure.Data) error {
	for i, rec := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(rec.Variable),
			Value: JSONData(rec),
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			return errors.Wrapf(err, "sending record %d", i)
		}
	}
	return nil
}

// Close shuts down the underlying producer.
func (p *Publisher) Close() error {
	return errors.Wrap(p.producer.Close(), "closing producer")
}
