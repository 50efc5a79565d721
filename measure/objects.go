package measure

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/experiment"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/termstat"
	"github.com/phenotools/silexplorer/urimap"
)

const chunkQuery = `
query ScientificObject($experience: [DataSource!]!, $osUris: [ID]) {
    ScientificObject(
        inferred: true,
        Experience: $experience,
        filter: {_id: $osUris}
    ) {
        data {
            target
            variable
            value
            date
        }
    }
}`

// Fetcher retrieves experiment data for explicit object URI lists, chunked
// and fetched concurrently. The zero value is not usable; use NewFetcher.
type Fetcher struct {
	chunkSize   int
	concurrency int
	stats       io.Writer
}

// FetcherOption is a functional option for NewFetcher.
type FetcherOption func(f *Fetcher)

// OptChunkSize sets how many object URIs go into a single query.
func OptChunkSize(n int) FetcherOption {
	return func(f *Fetcher) {
		f.chunkSize = n
	}
}

// OptConcurrency sets the number of parallel chunk fetches.
func OptConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		f.concurrency = n
	}
}

// OptStats directs progress reporting to w. Disabled when unset.
func OptStats(w io.Writer) FetcherOption {
	return func(f *Fetcher) {
		f.stats = w
	}
}

// NewFetcher returns a Fetcher with chunk size 40 and 5 workers.
// Nonpositive sizes fall back to the defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		chunkSize:   40,
		concurrency: 5,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.chunkSize <= 0 {
		f.chunkSize = 40
	}
	if f.concurrency <= 0 {
		f.concurrency = 5
	}
	return f
}

// ByObjects pulls the data of the objects frame (column URI) in chunks
// fetched by a bounded worker group and splits the merged records per
// variable. Any chunk error cancels the remaining fetches. The variables
// frame follows the same rules as Query.Variables.
func (fe *Fetcher) ByObjects(ctx context.Context, c *silexplorer.Client, table *urimap.Table, experimentName string, objects *frame.Frame, vars *frame.Frame) (map[string]*frame.Frame, error) {
	if objects == nil || !objects.HasColumn("URI") {
		return nil, errors.New("objects frame missing URI column")
	}
	experience, err := experiment.DataSourceID(ctx, c, table, experimentName)
	if err != nil {
		return nil, err
	}
	vars, err = variableList(ctx, c, table, Query{Experiment: experimentName, Variables: vars})
	if err != nil {
		return nil, err
	}

	uris := objects.Column("URI")
	chunks := chunkURIs(uris, fe.chunkSize)

	var collector *termstat.Collector
	if fe.stats != nil {
		collector = termstat.NewCollector(fe.stats, 2*time.Second)
		collector.Gauge("chunks", int64(len(chunks)))
		defer collector.Stop()
	}

	work := make(chan []string)
	var mu sync.Mutex
	var records []Data

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < fe.concurrency; i++ {
		eg.Go(func() error {
			for chunk := range work {
				data, err := fetchChunk(ctx, c, experience, chunk)
				if err != nil {
					return err
				}
				mu.Lock()
				records = append(records, data...)
				mu.Unlock()
				if collector != nil {
					collector.Count("chunks fetched", 1)
					collector.Count("records", int64(len(data)))
				}
			}
			return nil
		})
	}
	eg.Go(func() error {
		defer close(work)
		for _, chunk := range chunks {
			select {
			case work <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "fetching data chunks")
	}

	return SplitByVariable(records, vars), nil
}

func fetchChunk(ctx context.Context, c *silexplorer.Client, experience string, chunk []string) (ret []Data, err error) {
	var out struct {
		ScientificObject []dataHolder `json:"ScientificObject"`
	}
	err = c.GraphQL(ctx, chunkQuery, map[string]interface{}{
		"experience": []string{experience},
		"osUris":     chunk,
	}, &out)
	if err != nil {
		return nil, errors.Wrapf(err, "chunk of %d objects", len(chunk))
	}
	for _, obj := range out.ScientificObject {
		ret = append(ret, obj.Data...)
	}
	return ret, nil
}

func chunkURIs(uris []string, size int) [][]string {
	if size <= 0 {
		size = len(uris)
	}
	var chunks [][]string
	for len(uris) > size {
		chunks = append(chunks, uris[:size])
		uris = uris[size:]
	}
	if len(uris) > 0 {
		chunks = append(chunks, uris)
	}
	return chunks
}
