package input

import (
	"net"
	"sync"

	"github.com/snagata/famicore/pkg/logger"
)

// DefaultTCPAddr is the listen address remote controllers connect to.
const DefaultTCPAddr = ":51717"

// TCPDriver accepts remote controller connections. Each connected client
// streams one byte per update — the player-1 button bitmap — and the latest
// byte is ORed into the controller at every frame poll.
type TCPDriver struct {
	listener net.Listener

	mu    sync.Mutex
	state uint8
	done  chan struct{}
}

// NewTCPDriver starts listening on addr (DefaultTCPAddr when empty).
func NewTCPDriver(addr string) (*TCPDriver, error) {
	if addr == "" {
		addr = DefaultTCPAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	d := &TCPDriver{listener: listener, done: make(chan struct{})}
	go d.acceptLoop()
	logger.Info("TCP controller listening on %s", listener.Addr())
	return d, nil
}

func (d *TCPDriver) acceptLoop() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.done:
				return
			default:
				logger.Error("TCP controller accept: %v", err)
				return
			}
		}
		go d.serve(conn)
	}
}

func (d *TCPDriver) serve(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			d.mu.Lock()
			d.state = 0
			d.mu.Unlock()
			return
		}
		if n > 0 {
			d.mu.Lock()
			d.state = buf[n-1]
			d.mu.Unlock()
		}
	}
}

// Poll ORs the most recent remote state into player 1.
func (d *TCPDriver) Poll(c *Controller) {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()
	c.Press(0, state)
}

// Close stops the listener.
func (d *TCPDriver) Close() error {
	close(d.done)
	return d.listener.Close()
}
