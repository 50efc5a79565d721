// Package urimap keeps the URI<->Name bookkeeping for an OpenSILEX
// instance. Listings register every (URI, Name) pair they see; later
// operations resolve names the user typed back to URIs. The table tolerates
// the platform's inconsistencies - one URI under several names, one name on
// several URIs - by warning about them rather than dropping data, but name
// resolution refuses to guess when a name is ambiguous.
package urimap

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/phenotools/silexplorer/frame"
)

// Table is an in-memory URI<->Name registry, safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	pairs  []frame.Pair
	seen   map[frame.Pair]struct{}
	byURI  map[string][]string
	byName map[string][]string
	log    *zap.Logger
}

// Option is a functional option for NewTable.
type Option func(t *Table)

// OptLogger sets the logger used for consistency warnings.
func OptLogger(log *zap.Logger) Option {
	return func(t *Table) {
		t.log = log
	}
}

// NewTable returns an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		seen:   make(map[frame.Pair]struct{}),
		byURI:  make(map[string][]string),
		byName: make(map[string][]string),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of distinct pairs.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pairs)
}

// Insert registers pairs, skipping exact duplicates. It warns about each
// ambiguity a new pair introduces; pre-existing ambiguities stay quiet.
func (t *Table) Insert(pairs []frame.Pair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range pairs {
		if _, dup := t.seen[p]; dup {
			continue
		}
		t.seen[p] = struct{}{}
		t.pairs = append(t.pairs, p)
		t.byURI[p.URI] = append(t.byURI[p.URI], p.Name)
		t.byName[p.Name] = append(t.byName[p.Name], p.URI)
		if names := t.byURI[p.URI]; len(names) > 1 {
			t.log.Warn("uri associated with multiple names",
				zap.String("uri", p.URI), zap.Strings("names", names))
		}
		if uris := t.byName[p.Name]; len(uris) > 1 {
			t.log.Warn("name associated with multiple uris",
				zap.String("name", p.Name), zap.Strings("uris", uris))
		}
	}
}

// CheckConsistency warns about every URI associated with more than one name
// and every name associated with more than one URI. The data is left alone.
func (t *Table) CheckConsistency() {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for uri, names := range t.byURI {
		if len(names) > 1 {
			t.log.Warn("uri associated with multiple names",
				zap.String("uri", uri), zap.Strings("names", names))
		}
	}
	for name, uris := range t.byName {
		if len(uris) > 1 {
			t.log.Warn("name associated with multiple uris",
				zap.String("name", name), zap.Strings("uris", uris))
		}
	}
}

// URIByName resolves a name to its single URI. Zero matches and multiple
// matches are both errors.
func (t *Table) URIByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	uris := t.byName[name]
	switch len(uris) {
	case 0:
		return "", errors.Errorf("no URI found for '%v'", name)
	case 1:
		return uris[0], nil
	default:
		return "", errors.Errorf("multiple URIs found for '%v': %v", name, uris)
	}
}

// NamesByURI returns all names recorded for the URI. Several names trigger
// a warning; none returns an empty slice.
func (t *Table) NamesByURI(uri string) []string {
	if uri == "" {
		t.log.Warn("uri cannot be empty")
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := append([]string(nil), t.byURI[uri]...)
	if len(names) == 0 {
		t.log.Warn("no names found for uri", zap.String("uri", uri))
	} else if len(names) > 1 {
		t.log.Warn("multiple names found for uri",
			zap.String("uri", uri), zap.Strings("names", names))
	}
	return names
}

// Frame renders the table as a two-column frame in insertion order.
func (t *Table) Frame() *frame.Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f := frame.New("URI", "Name")
	for _, p := range t.pairs {
		r := f.Append()
		f.Set(r, "URI", p.URI)
		f.Set(r, "Name", p.Name)
	}
	return f
}

// Load reads pairs from a CSV file with URI,Name columns. A missing file is
// not an error: the table simply starts empty.
func (t *Table) Load(path string) error {
	f, err := frame.ReadFile(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		return errors.Wrap(err, "loading uri-name table")
	}
	if f.Len() > 0 && (!f.HasColumn("URI") || !f.HasColumn("Name")) {
		return errors.Errorf("'%v' must contain URI and Name columns", path)
	}
	t.Insert(f.URINamePairs())
	return nil
}

// Save writes the table to a CSV file.
func (t *Table) Save(path string) error {
	return errors.Wrap(t.Frame().WriteFile(path), "saving uri-name table")
}
