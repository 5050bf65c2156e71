package wire

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/foliodb/folio/pkg/log"
	"github.com/foliodb/folio/pkg/metrics"
	"github.com/foliodb/folio/pkg/model"
)

// Options configures socket behavior for a Client.
type Options struct {
	ConnectTimeout time.Duration
	ReceiveTimeout time.Duration
}

// DefaultOptions mirrors the defaults in the configuration object
// (§6): a 5s connect timeout and a 30s receive timeout.
func DefaultOptions() Options {
	return Options{ConnectTimeout: 5 * time.Second, ReceiveTimeout: 30 * time.Second}
}

// Client is a stateful, single-threaded session to the remote store.
// It is not safe for concurrent use by multiple goroutines.
type Client struct {
	addr string
	opts Options

	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	closed      bool
	invalid     bool
	inTx        bool
	pipelineLen int
	pipelining  bool
}

// Open dials addr, optionally authenticates with password (empty
// means no AUTH), and optionally selects db (negative means no
// SELECT). It fails with a *model.TransportError if connect, AUTH, or
// SELECT does not succeed.
func Open(addr, password string, db int, opts Options) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, opts.ConnectTimeout)
	if err != nil {
		dialErr := &model.TransportError{Op: "dial", Err: err}
		logWireError(addr, "dial", dialErr)
		return nil, dialErr
	}
	c := &Client{
		addr: addr,
		opts: opts,
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
	if password != "" {
		if err := c.authenticate(password); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if db >= 0 {
		if err := c.selectDB(db); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return c, nil
}

// Addr returns the dialed address, for logging and pool bookkeeping.
func (c *Client) Addr() string { return c.addr }

// Invalid reports whether a transport error has poisoned this
// session; an invalid Client must be closed and discarded, never
// returned to a pool's free list.
func (c *Client) Invalid() bool { return c.invalid }

// Close tears down the underlying connection. Safe to call more than
// once.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) authenticate(password string) error {
	reply, err := c.Do("AUTH", password)
	if err != nil {
		return err
	}
	if reply.Kind == ErrorReply {
		return &model.TransportError{Op: "auth", Err: &model.RemoteError{Message: reply.ErrMsg}}
	}
	return nil
}

func (c *Client) selectDB(db int) error {
	reply, err := c.Do("SELECT", strconv.Itoa(db))
	if err != nil {
		return err
	}
	if reply.Kind == ErrorReply {
		return &model.TransportError{Op: "select", Err: &model.RemoteError{Message: reply.ErrMsg}}
	}
	return nil
}

// Ping issues a liveness echo, used by pool.Pool.CheckHealth.
func (c *Client) Ping() (string, error) {
	reply, err := c.Do("PING")
	if err != nil {
		return "", err
	}
	if reply.Kind == ErrorReply {
		return "", &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Status, nil
}

// Do sends one command and blocks for its reply. It must not be
// called while the client is mid-transaction or mid-pipeline; use
// Queue or a Pipeline instead.
func (c *Client) Do(args ...string) (Reply, error) {
	if c.invalid {
		err := &model.TransportError{Op: "do", Err: fmt.Errorf("session invalidated by a prior error")}
		logWireError(c.addr, "do", err)
		return Reply{}, err
	}
	if err := c.writeCommand(args); err != nil {
		return Reply{}, err
	}
	if err := c.flush(); err != nil {
		return Reply{}, err
	}
	reply, err := c.readOne()
	if err != nil {
		return Reply{}, err
	}
	if reply.Kind == ErrorReply {
		logWireError(c.addr, opName(args), &model.RemoteError{Message: reply.ErrMsg})
	}
	return reply, nil
}

func opName(args []string) string {
	if len(args) == 0 {
		return "do"
	}
	return args[0]
}

// logWireError logs and counts a wire-level error at its point of
// detection, classifying it into the folio_wire_errors_total kind
// label. It does not alter the error; callers still construct and
// return their own typed error.
func logWireError(addr, op string, err error) {
	kind := "remote"
	switch err.(type) {
	case *model.TransportError:
		kind = "transport"
	case *model.ProtocolError:
		kind = "protocol"
	case *model.RemoteError:
		kind = "remote"
	}
	wireLog := log.WithComponent("wire")
	wireLog.Error().
		Err(err).
		Str("addr", addr).
		Str("op", op).
		Str("kind", kind).
		Msg("wire error")
	metrics.WireErrorsTotal.WithLabelValues(kind).Inc()
}

func (c *Client) writeCommand(args []string) error {
	c.setWriteDeadline()
	if _, err := fmt.Fprintf(c.w, "*%d\r\n", len(args)); err != nil {
		return c.fail("write", err)
	}
	for _, a := range args {
		if _, err := fmt.Fprintf(c.w, "$%d\r\n%s\r\n", len(a), a); err != nil {
			return c.fail("write", err)
		}
	}
	return nil
}

func (c *Client) flush() error {
	if err := c.w.Flush(); err != nil {
		return c.fail("flush", err)
	}
	return nil
}

func (c *Client) readOne() (Reply, error) {
	c.setReadDeadline()
	reply, err := readReply(c.r)
	if err != nil {
		c.invalid = true
		logWireError(c.addr, "read", err)
		return Reply{}, err
	}
	return reply, nil
}

func (c *Client) fail(op string, err error) error {
	c.invalid = true
	wrapped := &model.TransportError{Op: op, Err: err}
	logWireError(c.addr, op, wrapped)
	return wrapped
}

func (c *Client) setWriteDeadline() {
	if c.opts.ReceiveTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.opts.ReceiveTimeout))
	}
}

func (c *Client) setReadDeadline() {
	if c.opts.ReceiveTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.ReceiveTimeout))
	}
}

// Begin opens a transaction. Every subsequent Queue call enqueues one
// operation until Commit or Rollback.
func (c *Client) Begin() error {
	reply, err := c.Do("MULTI")
	if err != nil {
		return err
	}
	if reply.Kind == ErrorReply {
		return &model.RemoteError{Message: reply.ErrMsg}
	}
	c.inTx = true
	return nil
}

// Queue sends one operation inside an open transaction and consumes
// its "+QUEUED" acknowledgement. The real result arrives later, in
// order, from Commit.
func (c *Client) Queue(args ...string) error {
	if !c.inTx {
		return &model.CommitError{Reason: "Queue called outside a transaction"}
	}
	reply, err := c.Do(args...)
	if err != nil {
		return err
	}
	if reply.Kind == ErrorReply {
		return &model.RemoteError{Message: reply.ErrMsg}
	}
	return nil
}

// Commit executes the queued transaction. It returns the ordered
// per-operation results, or (nil, true, nil) if the server reports
// the transaction aborted (e.g. a watched key changed).
func (c *Client) Commit() (results []Reply, aborted bool, err error) {
	c.inTx = false
	reply, err := c.Do("EXEC")
	if err != nil {
		return nil, false, err
	}
	if reply.Kind == ErrorReply {
		return nil, false, &model.RemoteError{Message: reply.ErrMsg}
	}
	if reply.Kind == ArrayReply && reply.ArrayNull {
		return nil, true, nil
	}
	return reply.Array, false, nil
}

// Rollback discards a pending transaction. Callers must call this on
// any error that occurs between Begin and Commit.
func (c *Client) Rollback() error {
	c.inTx = false
	reply, err := c.Do("DISCARD")
	if err != nil {
		return err
	}
	if reply.Kind == ErrorReply {
		return &model.RemoteError{Message: reply.ErrMsg}
	}
	return nil
}

// Pipeline is a scoped batch: operations queued through Send are
// written to the wire but not individually read back. End
// reads exactly as many replies as were queued and returns them in
// order. A Client can only have one open Pipeline at a time.
type Pipeline struct {
	c *Client
}

// StartPipeline marks the session as pipelining and returns a handle
// for queuing operations. Callers must call End exactly once,
// even on error, to leave the session able to read again.
func (c *Client) StartPipeline() *Pipeline {
	c.pipelining = true
	c.pipelineLen = 0
	return &Pipeline{c: c}
}

// Send writes one operation without waiting for its reply.
func (p *Pipeline) Send(args ...string) error {
	c := p.c
	if c.invalid {
		err := &model.TransportError{Op: "pipeline-send", Err: fmt.Errorf("session invalidated by a prior error")}
		logWireError(c.addr, "pipeline-send", err)
		return err
	}
	if err := c.writeCommand(args); err != nil {
		return err
	}
	c.pipelineLen++
	return nil
}

// End flushes the batch and reads exactly as many replies as were
// queued by Send, in order.
func (p *Pipeline) End() ([]Reply, error) {
	c := p.c
	defer func() {
		c.pipelining = false
		c.pipelineLen = 0
	}()
	if err := c.flush(); err != nil {
		return nil, err
	}
	results := make([]Reply, 0, c.pipelineLen)
	for i := 0; i < c.pipelineLen; i++ {
		reply, err := c.readOne()
		if err != nil {
			return results, err
		}
		results = append(results, reply)
	}
	return results, nil
}
