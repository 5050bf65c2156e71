package pool

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliodb/folio/pkg/model"
	"github.com/foliodb/folio/pkg/wire"
)

// pingServer accepts any number of connections and answers every
// command with +PONG, so pool tests can exercise real wire.Client
// dials without a live store.
type pingServer struct {
	ln net.Listener
}

func newPingServer(t *testing.T) (*pingServer, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ps := &pingServer{ln: ln}
	go ps.serve()
	return ps, ln.Addr().String()
}

func (ps *pingServer) serve() {
	for {
		conn, err := ps.ln.Accept()
		if err != nil {
			return
		}
		go ps.handle(conn)
	}
}

func (ps *pingServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, "*") {
			return
		}
		var n int
		fmt.Sscanf(line[1:], "%d", &n)
		for i := 0; i < n; i++ {
			hdr, err := r.ReadString('\n')
			if err != nil {
				return
			}
			hdr = strings.TrimRight(hdr, "\r\n")
			var blen int
			fmt.Sscanf(hdr[1:], "%d", &blen)
			buf := make([]byte, blen+2)
			if _, err := readFull(r, buf); err != nil {
				return
			}
		}
		if _, err := conn.Write([]byte("+PONG\r\n")); err != nil {
			return
		}
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		if err != nil {
			return read, err
		}
		read += n
	}
	return read, nil
}

func (ps *pingServer) close() { ps.ln.Close() }

func testOpts() wire.Options {
	return wire.Options{ConnectTimeout: time.Second, ReceiveTimeout: 2 * time.Second}
}

func TestWithConnDialsUnderCapacity(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 2, testOpts())
	defer p.Close()

	err := p.WithConn(func(c *wire.Client) error {
		_, perr := c.Ping()
		return perr
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Size())
}

func TestWithConnReusesFreeClient(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 2, testOpts())
	defer p.Close()

	require.NoError(t, p.WithConn(func(c *wire.Client) error { return nil }))
	require.NoError(t, p.WithConn(func(c *wire.Client) error { return nil }))
	assert.Equal(t, 1, p.Size(), "second checkout should reuse the freed client")
}

func TestWithConnOverflowsAtCapacity(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 1, testOpts())
	defer p.Close()

	blocker := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- p.WithConn(func(c *wire.Client) error {
			<-blocker
			return nil
		})
	}()

	// Give the first checkout time to claim the only slot.
	time.Sleep(50 * time.Millisecond)

	var overflowErr error
	overflowErr = p.WithConn(func(c *wire.Client) error { return nil })
	assert.NoError(t, overflowErr)

	close(blocker)
	require.NoError(t, <-done)

	assert.Equal(t, 1, p.Size(), "overflow client is closed on return, not added to live set")
}

func TestWithConnFailureClosesAndReplaces(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 2, testOpts())
	defer p.Close()

	boom := errors.New("simulated failure")
	err := p.WithConn(func(c *wire.Client) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, 10*time.Millisecond,
		"failed client is closed and a replacement is dialed")
}

func TestWithConnOnClosedPoolFails(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 2, testOpts())
	p.Close()

	err := p.WithConn(func(c *wire.Client) error { return nil })
	assert.ErrorIs(t, err, model.ErrPoolClosed)
}

func TestCheckHealthReplacesDeadClient(t *testing.T) {
	ps, addr := newPingServer(t)
	defer ps.close()

	p := New(addr, "", -1, 2, testOpts())
	defer p.Close()

	require.NoError(t, p.WithConn(func(c *wire.Client) error { return nil }))
	require.Len(t, p.free, 1)

	// Poison the only free client's connection directly so the next
	// health check observes a transport failure.
	p.free[0].Close()

	p.CheckHealth()
	assert.Equal(t, 1, p.Size(), "health check dials one replacement")
}
