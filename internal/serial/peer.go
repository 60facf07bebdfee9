package serial

import (
	"net"
	"sync"
)

// txQueue bounds bytes waiting to be written to a slow peer. Bytes beyond it
// are dropped; the cable is best-effort.
const txQueue = 256

// peer wraps one accepted connection. A reader goroutine turns blocking reads
// into chunks on rx (closed on EOF or error) and a writer goroutine drains tx,
// so the relay side only ever does non-blocking channel operations.
type peer struct {
	conn      net.Conn
	rx        chan []byte
	tx        chan byte
	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(conn net.Conn, bufSize int) *peer {
	p := &peer{
		conn: conn,
		rx:   make(chan []byte, 16),
		tx:   make(chan byte, txQueue),
		done: make(chan struct{}),
	}
	go p.readLoop(bufSize)
	go p.writeLoop()
	return p
}

func (p *peer) readLoop(bufSize int) {
	defer close(p.rx)
	buf := make([]byte, bufSize)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.rx <- chunk:
			case <-p.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (p *peer) writeLoop() {
	one := make([]byte, 1)
	for {
		select {
		case c := <-p.tx:
			one[0] = c
			// write failures surface as a read error on the same socket
			p.conn.Write(one)
		case <-p.done:
			return
		}
	}
}

// send queues c for the peer, dropping it if the queue is full.
func (p *peer) send(c byte) {
	select {
	case p.tx <- c:
	default:
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}
