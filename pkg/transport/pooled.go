package transport

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
)

const (
	_expvarPrefix = "jira.client.conn_pools"
)

var (
	_expvar = expvar.NewMap(_expvarPrefix)
)

// NewPooled creates an *http.Transport with the given options and decorates
// its net.Dialer returning a PooledTransport which provides insight on the
// number of opened connections per network address.
func NewPooled(name string, opts ...Option) *PooledTransport {
	return NewPooledFromTransport(name, NewTransport(opts...))
}

// NewPooledFromTransport wraps an *http.Transport and decorates its
// net.Dialer returning a PooledTransport which provides insight on the
// number of opened connections per network address.
func NewPooledFromTransport(name string, transport *http.Transport) *PooledTransport {
	t := &PooledTransport{
		Transport: transport,
		Name:      name,
	}

	t.DialContext = t.tracedDial(t.DialContext)
	t.registerExpVar()

	return t
}

// PooledTransport is an implementation of an http.RoundTripper which
// provides insight on the number of connections it has opened per network
// address. Stats are published under the jira.client.conn_pools expvar map.
type PooledTransport struct {
	*http.Transport

	Name  string
	stats sync.Map
}

type dialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (t *PooledTransport) tracedDial(dial dialContextFunc) dialContextFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		conn, err := dial(ctx, network, address)
		if err != nil {
			return nil, err
		}

		t.traceConn(network, address, 1)
		return &countedConn{
			Conn:    conn,
			onClose: func() { t.traceConn(network, address, -1) },
		}, nil
	}
}

func (t *PooledTransport) traceConn(network, address string, delta int64) {
	key := network + ":" + address
	value, _ := t.stats.LoadOrStore(key, new(int64))
	atomic.AddInt64(value.(*int64), delta)
}

// Stats returns the number of currently open connections per network address.
func (t *PooledTransport) Stats() map[string]int64 {
	stats := map[string]int64{}

	t.stats.Range(func(key, value interface{}) bool {
		stats[key.(string)] = atomic.LoadInt64(value.(*int64))
		return true
	})

	return stats
}

func (t *PooledTransport) registerExpVar() {
	f := func() interface{} { return t.Stats() }
	_expvar.Set(t.Name, expvar.Func(f))
}

// countedConn decorates a net.Conn so the owning pool can decrement its
// connection count exactly once on close.
type countedConn struct {
	net.Conn

	once    sync.Once
	onClose func()
}

func (c *countedConn) Close() error {
	c.once.Do(c.onClose)
	return c.Conn.Close()
}
