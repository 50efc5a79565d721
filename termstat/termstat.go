// Package termstat reports fetch progress to a terminal. A Collector
// accumulates named counters and gauges and periodically rewrites a single
// status line, so long chunked retrievals show chunk and record throughput
// without scrolling the screen.
package termstat

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector accumulates stats and prints them to out on an interval.
type Collector struct {
	lock    sync.Mutex
	counts  map[string]int64
	gauges  map[string]int64
	changed bool
	out     io.Writer
	stop    chan struct{}
	done    chan struct{}
}

// NewCollector starts a Collector writing to out every interval. Call Stop
// to flush the final line and release the ticker.
func NewCollector(out io.Writer, interval time.Duration) *Collector {
	c := &Collector{
		counts: make(map[string]int64),
		gauges: make(map[string]int64),
		out:    out,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.run(interval)
	return c
}

func (c *Collector) run(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	defer close(c.done)
	for {
		select {
		case <-tick.C:
			c.write(false)
		case <-c.stop:
			c.write(true)
			return
		}
	}
}

// Count adds value to the named counter.
func (c *Collector) Count(name string, value int64) {
	c.lock.Lock()
	c.counts[name] += value
	c.changed = true
	c.lock.Unlock()
}

// Gauge sets the named gauge to value.
func (c *Collector) Gauge(name string, value int64) {
	c.lock.Lock()
	c.gauges[name] = value
	c.changed = true
	c.lock.Unlock()
}

// Stop flushes the last status line and stops the background writer. The
// Collector must not be used after Stop.
func (c *Collector) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Collector) write(final bool) {
	c.lock.Lock()
	if !c.changed && !final {
		c.lock.Unlock()
		return
	}
	names := make([]string, 0, len(c.counts)+len(c.gauges))
	for name := range c.counts {
		names = append(names, name)
	}
	for name := range c.gauges {
		if _, ok := c.counts[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	sb := strings.Builder{}
	for _, name := range names {
		v, ok := c.counts[name]
		if !ok {
			v = c.gauges[name]
		}
		fmt.Fprintf(&sb, "%s: %d ", name, v)
	}
	c.changed = false
	c.lock.Unlock()

	if final {
		fmt.Fprintf(c.out, "\r%s\n", sb.String())
		return
	}
	fmt.Fprintf(c.out, "\r%s", sb.String())
}
