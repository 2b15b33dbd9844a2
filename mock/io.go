// Package mock provides real connections for tests that need a stream.
package mock

import (
	"net"
)

// TCPPair returns both ends of a loopback TCP connection: r is the accepted
// side and w the dialing side.
func TCPPair() (r net.Conn, w net.Conn, err error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}
	defer l.Close()

	dialed := make(chan error, 1)
	go func() {
		var derr error
		w, derr = net.Dial("tcp", l.Addr().String())
		dialed <- derr
	}()
	r, err = l.Accept()
	if derr := <-dialed; err == nil {
		err = derr
	}
	if err != nil {
		if r != nil {
			r.Close()
		}
		if w != nil {
			w.Close()
		}
		return nil, nil, err
	}
	return r, w, nil
}

// ShortWriter accepts at most Limit bytes per call and then fails with Err
// when Err is set.
type ShortWriter struct {
	Limit   int
	Err     error
	Written []byte
}

func (s *ShortWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > s.Limit {
		n = s.Limit
	}
	s.Written = append(s.Written, p[:n]...)
	if n < len(p) {
		return n, s.Err
	}
	return n, nil
}
