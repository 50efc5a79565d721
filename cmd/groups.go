package cmd

import (
	"context"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/phenotools/silexplorer/sciobject"
)

// GroupsMain is wrapped by NewGroupsCommand and only exported for testing
// purposes.
type GroupsMain struct {
	ClientConfig `flag:"!embed"`

	Experiment string `help:"Name of the experiment."`
	Type       string `help:"Scientific object type name."`
	Extract    string `help:"Write this group's objects instead of the summary."`
	Out        string `help:"CSV output path. Writes to stdout when empty."`

	stdout io.Writer
}

// NewGroupsMain gets a GroupsMain with the default configuration.
func NewGroupsMain() *GroupsMain {
	return &GroupsMain{ClientConfig: NewClientConfig()}
}

// Run groups the experiment's objects into replicates and writes either
// the group summary or one extracted group.
func (m *GroupsMain) Run() error {
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

	objects, err := sciobject.List(ctx, client, table, sciobject.Query{
		Experiment: m.Experiment,
		TypeName:   m.Type,
	}, sciobject.OptLogger(log))
	if err != nil {
		return err
	}

	groups, summary := sciobject.Replicates(objects)
	out := summary
	if m.Extract != "" {
		out, err = sciobject.ExtractGroup(groups, m.Extract)
		if err != nil {
			return err
		}
	}
	if err := writeFrame(out, m.Out, m.stdout); err != nil {
		return err
	}
	return m.finish(table)
}

// NewGroupsCommand returns a new cobra command wrapping GroupsMain.
func NewGroupsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	main := NewGroupsMain()
	main.stdout = stdout
	com := &cobra.Command{
		Use:   "groups",
		Short: "groups - cluster scientific objects into replicate groups",
		Long: `Cluster an experiment's scientific objects into replicate groups by
their factor levels and germplasm, and write the group summary or one
extracted group.`,
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
	subcommandFns["groups"] = NewGroupsCommand
}
