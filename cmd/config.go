package cmd

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

// ClientConfig holds the connection settings shared by every subcommand.
type ClientConfig struct {
	RestURL    string `flag:"rest-url" help:"Base URL of the REST API."`
	GraphqlURL string `flag:"graphql-url" help:"URL of the GraphQL endpoint."`
	User       string `help:"Identifier to authenticate with."`
	Password   string `help:"Password to authenticate with."`
	URINames   string `flag:"uri-names" help:"Path of the CSV file persisting the URI/name table."`
	Config     string `help:"TOML config file to read options from."`
}

// NewClientConfig returns a ClientConfig with the default configuration.
func NewClientConfig() ClientConfig {
	return ClientConfig{
		RestURL:    "http://localhost:8666/rest",
		GraphqlURL: "http://localhost:8666/graphql",
		URINames:   "uri_names.csv",
	}
}

// connect authenticates a client and loads the URI/name table.
func (cc *ClientConfig) connect(ctx context.Context, log *zap.Logger) (*silexplorer.Client, *urimap.Table, error) {
	client, err := silexplorer.NewClient(cc.RestURL, cc.GraphqlURL, silexplorer.OptLogger(log))
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting client")
	}
	if err := client.Login(ctx, cc.User, cc.Password); err != nil {
		return nil, nil, errors.Wrap(err, "logging in")
	}

	table := urimap.NewTable(urimap.OptLogger(log))
	if cc.URINames != "" {
		if err := table.Load(cc.URINames); err != nil {
			return nil, nil, errors.Wrap(err, "loading uri/name table")
		}
	}
	return client, table, nil
}

// finish persists the URI/name table back to disk.
func (cc *ClientConfig) finish(table *urimap.Table) error {
	if cc.URINames == "" {
		return nil
	}
	return errors.Wrap(table.Save(cc.URINames), "saving uri/name table")
}

func newLogger() (*zap.Logger, error) {
	log, err := zap.NewProduction()
	return log, errors.Wrap(err, "getting logger")
}

// writeFrame writes f as CSV to path, or to w when path is empty.
func writeFrame(f *frame.Frame, path string, w io.Writer) error {
	if path == "" {
		return f.WriteCSV(w)
	}
	return f.WriteFile(path)
}
