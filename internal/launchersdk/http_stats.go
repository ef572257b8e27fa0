package launchersdk

import (
	"io"
	"sync/atomic"
	"time"
)

// httpStats tracks traffic for manifest fetches and file downloads.
type httpStats struct {
	requests   atomic.Int64
	failures   atomic.Int64
	bytesRecv  atomic.Int64
	lastRecvNs atomic.Int64

	lastErrorValue atomic.Value // string
}

func newHTTPStats() *httpStats {
	s := &httpStats{}
	s.lastErrorValue.Store("")
	return s
}

func (s *httpStats) onRequest() {
	s.requests.Add(1)
}

func (s *httpStats) onRecv(n int) {
	if n <= 0 {
		return
	}
	s.bytesRecv.Add(int64(n))
	s.lastRecvNs.Store(time.Now().UnixNano())
}

func (s *httpStats) onError(err error) {
	if err == nil {
		return
	}
	s.failures.Add(1)
	s.lastErrorValue.Store(err.Error())
}

// HTTPStatsSnapshot is a point in time copy of the client's counters.
type HTTPStatsSnapshot struct {
	Requests       int64  `json:"requests"`
	Failures       int64  `json:"failures"`
	BytesRecvTotal int64  `json:"bytes_recv_total"`
	LastRecvAtNs   int64  `json:"last_recv_at_ns,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

func (s *httpStats) snapshot() HTTPStatsSnapshot {
	lastErr, _ := s.lastErrorValue.Load().(string)
	return HTTPStatsSnapshot{
		Requests:       s.requests.Load(),
		Failures:       s.failures.Load(),
		BytesRecvTotal: s.bytesRecv.Load(),
		LastRecvAtNs:   s.lastRecvNs.Load(),
		LastError:      lastErr,
	}
}

type countingReader struct {
	r      io.Reader
	onRead func(int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}
