// Package serial relays a core's serial port over TCP, emulating a cable
// between two handhelds. One peer may be attached at a time; a new
// connection replaces the previous one.
package serial

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/FabianRolfMatthiasNoll/LynxRunner/internal/core"
)

// DefaultBufferSize bounds how many received bytes are handed to the core
// per relay call.
const DefaultBufferSize = 128

// Bridge accepts TCP peers and relays bytes between the current peer and a
// core.SerialPort. Serve runs the accept loop; Relay is called by the
// goroutine that owns the core.
type Bridge struct {
	ln      net.Listener
	bufSize int
	conns   chan net.Conn

	// owned by the Relay goroutine
	peer *peer

	closeOnce sync.Once
	closed    chan struct{}
}

// Listen binds addr (e.g. ":5555" or "127.0.0.1:0").
func Listen(addr string, bufSize int) (*Bridge, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("serial bridge listen %s: %w", addr, err)
	}
	return &Bridge{
		ln:      ln,
		bufSize: bufSize,
		conns:   make(chan net.Conn, 4),
		closed:  make(chan struct{}),
	}, nil
}

// Addr is the bound listener address.
func (b *Bridge) Addr() net.Addr { return b.ln.Addr() }

// Serve accepts connections until Close is called. It lowers the priority of
// its OS thread so accepting never competes with the emulation.
func (b *Bridge) Serve() error {
	lowerPriority()
	log.Printf("serial bridge listening on %s", b.ln.Addr())
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			select {
			case <-b.closed:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("serial bridge accept: %v", err)
			continue
		}
		select {
		case b.conns <- conn:
		case <-b.closed:
			conn.Close()
			return nil
		}
	}
}

// Relay performs one round of cable I/O: attach a pending peer, hand at most
// one buffer of received bytes to the port, and forward a byte the port wants
// to send.
func (b *Bridge) Relay(port core.SerialPort) {
	select {
	case conn := <-b.conns:
		if b.peer != nil {
			b.peer.close()
		}
		b.peer = newPeer(conn, b.bufSize)
		port.SetCablePresent(true)
		log.Printf("serial peer connected from %s", conn.RemoteAddr())
	default:
	}

	if b.peer != nil {
		select {
		case chunk, ok := <-b.peer.rx:
			if !ok {
				log.Printf("serial peer %s disconnected", b.peer.conn.RemoteAddr())
				b.peer.close()
				b.peer = nil
				port.SetCablePresent(false)
				break
			}
			for _, c := range chunk {
				port.SerialRx(c)
			}
		default:
		}
	}

	if c, ok := port.SerialTx(); ok && b.peer != nil {
		b.peer.send(c)
	}
}

// Connected reports whether a peer is attached. Only meaningful on the Relay
// goroutine.
func (b *Bridge) Connected() bool { return b.peer != nil }

// Close stops the accept loop and drops any attached or pending peer.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.ln.Close()
		for {
			select {
			case conn := <-b.conns:
				conn.Close()
				continue
			default:
			}
			break
		}
		if b.peer != nil {
			b.peer.close()
			b.peer = nil
		}
	})
	return err
}
