package sciobject

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/phenotools/silexplorer/frame"
)

// NaNGroup is the group identifier of objects whose discriminating columns
// are all empty.
const NaNGroup = "NaN_group"

// Replicates clusters scientific objects by the identity of their pivoted
// columns: every column except URI and Name that takes more than one value
// participates in the group key. Trailing empty segments are trimmed from
// the key so objects differing only in absent tail columns group together.
// It returns the groups keyed by identifier plus a summary frame (Group,
// Number of Elements) sorted by identifier.
func Replicates(f *frame.Frame) (map[string]*frame.Frame, *frame.Frame) {
	var compare []string
	for _, c := range f.Columns() {
		if c == "URI" || c == "Name" {
			continue
		}
		if f.DistinctCount(c) > 1 {
			compare = append(compare, c)
		}
	}

	groups := make(map[string]*frame.Frame)
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		id := groupIdentifier(row, compare)
		g, ok := groups[id]
		if !ok {
			g = frame.New(f.Columns()...)
			groups[id] = g
		}
		r := g.Append()
		for _, c := range f.Columns() {
			g.Set(r, c, row[c])
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := frame.New("Group", "Number of Elements")
	for _, id := range ids {
		r := summary.Append()
		summary.Set(r, "Group", id)
		summary.Set(r, "Number of Elements", strconv.Itoa(groups[id].Len()))
	}
	return groups, summary
}

func groupIdentifier(row map[string]string, compare []string) string {
	parts := make([]string, len(compare))
	for i, c := range compare {
		parts[i] = row[c]
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	id := strings.Join(parts, "_")
	if id == "" {
		return NaNGroup
	}
	return id
}

// ExtractGroup pulls one group out of the Replicates result, listing the
// available identifiers when the requested one does not exist.
func ExtractGroup(groups map[string]*frame.Frame, id string) (*frame.Frame, error) {
	g, ok := groups[id]
	if !ok {
		ids := make([]string, 0, len(groups))
		for k := range groups {
			ids = append(ids, k)
		}
		sort.Strings(ids)
		return nil, errors.Errorf("invalid group identifier '%v', available groups: %v", id, ids)
	}
	return g, nil
}
