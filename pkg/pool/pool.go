package pool

import (
	"sync"

	"github.com/foliodb/folio/pkg/log"
	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/wire"
)

// Pool is a bounded pool of wire.Client sessions against one endpoint.
// It is safe for concurrent use.
type Pool struct {
	addr     string
	password string
	db       int
	opts     wire.Options
	maxSize  int

	mu     sync.Mutex
	free   []*wire.Client
	live   map[*wire.Client]struct{}
	closed bool
}

// New creates a pool bounded at maxSize live clients against addr. No
// connections are dialed eagerly; the first checkouts populate the
// pool lazily.
func New(addr, password string, db, maxSize int, opts wire.Options) *Pool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Pool{
		addr:     addr,
		password: password,
		db:       db,
		opts:     opts,
		maxSize:  maxSize,
		live:     make(map[*wire.Client]struct{}, maxSize),
	}
}

// WithConn checks out a client, invokes f, and returns the client to
// the pool on success. A transport failure observed by f (signaled by
// returning err, or by the client reporting Invalid() after f runs)
// closes the client, counts it as a pool error, and schedules a
// replacement so the free list refills in the background.
func (p *Pool) WithConn(f func(*wire.Client) error) error {
	logger := log.WithComponent("pool")

	c, overflow, err := p.checkout()
	if err != nil {
		return err
	}
	metrics.PoolCheckoutsTotal.Inc()
	if overflow {
		metrics.PoolOverflowTotal.Inc()
	}

	ferr := f(c)
	failed := ferr != nil || c.Invalid()

	if failed {
		c.Close()
		metrics.PoolErrorsTotal.Inc()
		if !overflow {
			p.mu.Lock()
			delete(p.live, c)
			p.mu.Unlock()
			logger.Warn().Str("endpoint", p.addr).Err(ferr).Msg("pool: client failed, scheduling replacement")
			go p.replenish()
		}
		return ferr
	}

	p.checkin(c, overflow)
	return nil
}

func (p *Pool) checkout() (c *wire.Client, overflow bool, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, false, model.ErrPoolClosed
	}
	if n := len(p.free); n > 0 {
		c = p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return c, false, nil
	}
	if len(p.live) < p.maxSize {
		p.mu.Unlock()
		c, err = p.dial()
		if err != nil {
			return nil, false, err
		}
		p.mu.Lock()
		p.live[c] = struct{}{}
		p.mu.Unlock()
		metrics.PoolSize.Set(float64(len(p.live)))
		return c, false, nil
	}
	p.mu.Unlock()

	c, err = p.dial()
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (p *Pool) checkin(c *wire.Client, overflow bool) {
	if overflow {
		c.Close()
		return
	}
	p.mu.Lock()
	closed := p.closed
	if !closed {
		p.free = append(p.free, c)
	} else {
		delete(p.live, c)
	}
	p.mu.Unlock()
	if closed {
		c.Close()
	}
}

func (p *Pool) dial() (*wire.Client, error) {
	return wire.Open(p.addr, p.password, p.db, p.opts)
}

// replenish dials one replacement client and adds it to the free
// list, restoring pool capacity after WithConn closed a failed
// client. Errors are logged and swallowed; the next checkout will
// simply dial on demand instead.
func (p *Pool) replenish() {
	logger := log.WithComponent("pool")
	c, err := p.dial()
	if err != nil {
		logger.Error().Str("endpoint", p.addr).Err(err).Msg("pool: replacement dial failed")
		return
	}
	p.mu.Lock()
	if p.closed || len(p.live) >= p.maxSize {
		p.mu.Unlock()
		c.Close()
		return
	}
	p.live[c] = struct{}{}
	p.free = append(p.free, c)
	p.mu.Unlock()
	metrics.PoolSize.Set(float64(len(p.live)))
}

// CheckHealth pings every free client and replaces any that fail to
// answer PONG.
func (p *Pool) CheckHealth() {
	logger := log.WithComponent("pool")

	p.mu.Lock()
	candidates := make([]*wire.Client, len(p.free))
	copy(candidates, p.free)
	p.mu.Unlock()

	for _, c := range candidates {
		status, err := c.Ping()
		if err == nil && status == "PONG" {
			continue
		}
		logger.Warn().Str("endpoint", p.addr).Err(err).Msg("pool: health check failed, replacing client")

		p.mu.Lock()
		for i, fc := range p.free {
			if fc == c {
				p.free = append(p.free[:i], p.free[i+1:]...)
				break
			}
		}
		delete(p.live, c)
		p.mu.Unlock()

		c.Close()
		metrics.PoolErrorsTotal.Inc()
		p.replenish()
	}
}

// Close marks the pool closed: future checkouts fail with
// model.ErrPoolClosed, and every free client is closed immediately.
// Clients currently on loan are closed as they're returned.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	free := p.free
	p.free = nil
	p.live = make(map[*wire.Client]struct{})
	p.mu.Unlock()

	for _, c := range free {
		c.Close()
	}
	metrics.PoolSize.Set(0)
}

// Size returns the current number of live clients (checked out or
// free), for diagnostics.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
