package diameter

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

// TransportError reports a connect or send failure against the peer.
type TransportError struct {
	Op     string
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %s", e.Op, e.Reason)
}

// Future resolves to the correlated answer for one sent request.
type Future struct {
	ch  chan *Message
	err chan error
}

func newFuture() *Future {
	return &Future{
		ch:  make(chan *Message, 1),
		err: make(chan error, 1),
	}
}

func (f *Future) resolve(m *Message) {
	f.ch <- m
}

func (f *Future) reject(err error) {
	f.err <- err
}

// Await blocks until the answer arrives, ctx is cancelled, or deadline
// elapses — whichever comes first.
func (f *Future) Await(ctx context.Context) (*Message, error) {
	select {
	case m := <-f.ch:
		return m, nil
	case err := <-f.err:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Client is the asynchronous transport the Dispatcher sends through.
// A single Client is exclusively owned by one Dispatcher; it is never
// shared across workers.
type Client interface {
	Send(ctx context.Context, msg *Message) (*Future, error)
	Close() error
}

// TCPClient is a minimal length-prefixed framing over a TCP socket. It
// correlates answers to futures by hop-by-hop id — a working but
// intentionally non-wire-compliant stand-in for a full Diameter codec.
type TCPClient struct {
	conn net.Conn

	mu      sync.Mutex
	pending map[uint32]*Future
	closed  bool
}

// DialTCP connects to address and starts the read loop that correlates
// incoming answers to pending futures.
func DialTCP(ctx context.Context, address string) (*TCPClient, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &TransportError{Op: "connect", Reason: err.Error()}
	}
	c := &TCPClient{
		conn:    conn,
		pending: make(map[uint32]*Future),
	}
	go c.readLoop()
	return c, nil
}

func (c *TCPClient) Send(ctx context.Context, msg *Message) (*Future, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &TransportError{Op: "send", Reason: "transport closed"}
	}
	fut := newFuture()
	c.pending[msg.HopByHopID] = fut
	c.mu.Unlock()

	frame := encodeFrame(msg)
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.mu.Lock()
		delete(c.pending, msg.HopByHopID)
		c.mu.Unlock()
		return nil, &TransportError{Op: "send", Reason: err.Error()}
	}
	return fut, nil
}

func (c *TCPClient) readLoop() {
	for {
		msg, err := decodeFrame(c.conn)
		if err != nil {
			c.mu.Lock()
			for _, fut := range c.pending {
				fut.reject(&TransportError{Op: "recv", Reason: err.Error()})
			}
			c.pending = map[uint32]*Future{}
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		fut, ok := c.pending[msg.HopByHopID]
		if ok {
			delete(c.pending, msg.HopByHopID)
		}
		c.mu.Unlock()

		if ok {
			fut.resolve(msg)
		}
	}
}

func (c *TCPClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// encodeFrame writes a 4-byte big-endian length prefix followed by a
// fixed-size header (command code, application id, flags, hop-by-hop,
// end-to-end, avp count) and, per AVP, its code, mandatory byte, type,
// and length-prefixed scalar. This is enough framing to round-trip through
// a loopback peer; it is not an RFC 6733 encoding.
func encodeFrame(msg *Message) []byte {
	var body []byte
	body = appendUint32(body, msg.CommandCode)
	body = appendUint32(body, msg.ApplicationID)
	body = append(body, msg.Flags)
	body = appendUint32(body, msg.HopByHopID)
	body = appendUint32(body, msg.EndToEndID)
	body = appendUint32(body, uint32(len(msg.AVPs)))
	for _, avp := range msg.AVPs {
		body = appendUint32(body, avp.Code)
		if avp.Mandatory {
			body = append(body, 1)
		} else {
			body = append(body, 0)
		}
		body = appendUint32(body, uint32(avp.Value.Type))
		body = appendString(body, avp.Value.Scalar)
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	return frame
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func decodeFrame(r net.Conn) (*Message, error) {
	var lenBuf [4]byte
	if _, err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := readFull(r, body); err != nil {
		return nil, err
	}

	msg := &Message{}
	off := 0
	msg.CommandCode = binary.BigEndian.Uint32(body[off:])
	off += 4
	msg.ApplicationID = binary.BigEndian.Uint32(body[off:])
	off += 4
	msg.Flags = body[off]
	off++
	msg.HopByHopID = binary.BigEndian.Uint32(body[off:])
	off += 4
	msg.EndToEndID = binary.BigEndian.Uint32(body[off:])
	off += 4
	count := binary.BigEndian.Uint32(body[off:])
	off += 4

	for i := uint32(0); i < count; i++ {
		code := binary.BigEndian.Uint32(body[off:])
		off += 4
		mandatory := body[off] == 1
		off++
		avpType := AVPType(binary.BigEndian.Uint32(body[off:]))
		off += 4
		slen := binary.BigEndian.Uint32(body[off:])
		off += 4
		scalar := string(body[off : off+int(slen)])
		off += int(slen)
		msg.AVPs = append(msg.AVPs, AVP{
			Code:      code,
			Mandatory: mandatory,
			Value:     AVPValue{Type: avpType, Scalar: scalar},
		})
	}

	return msg, nil
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LoopbackClient is an in-memory transport that answers every request
// after a configurable synthetic latency, used by the test suite and
// by smoke-testing a campaign without a live peer.
type LoopbackClient struct {
	Latency time.Duration

	mu     sync.Mutex
	closed bool
	sent   []*Message
}

// NewLoopback returns a LoopbackClient with the given synthetic
// response latency (0 resolves immediately).
func NewLoopback(latency time.Duration) *LoopbackClient {
	return &LoopbackClient{Latency: latency}
}

func (c *LoopbackClient) Send(ctx context.Context, msg *Message) (*Future, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &TransportError{Op: "send", Reason: "transport closed"}
	}
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	fut := newFuture()
	answer := &Message{
		CommandCode:   msg.CommandCode,
		ApplicationID: msg.ApplicationID,
		Flags:         0,
		HopByHopID:    msg.HopByHopID,
		EndToEndID:    msg.EndToEndID,
	}
	go func() {
		if c.Latency > 0 {
			timer := time.NewTimer(c.Latency)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				fut.reject(ctx.Err())
				return
			}
		}
		fut.resolve(answer)
	}()
	return fut, nil
}

// Sent returns every message handed to Send so far, in send order.
func (c *LoopbackClient) Sent() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Message, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *LoopbackClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
