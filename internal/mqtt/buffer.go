package mqtt

import "go.uber.org/zap"

// bufferedMsg is a serialized message held for replay after reconnect.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the newest messages while offline. Not safe for
// concurrent use.
type ringBuffer struct {
	log     *zap.Logger
	buf     []bufferedMsg
	head    int
	count   int
	dropped int
}

func newRingBuffer(log *zap.Logger, capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{log: log, buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.buf)
	if r.count == n {
		if r.dropped == 0 {
			r.log.Warn("offline buffer full, dropping oldest", zap.Int("capacity", n))
		}
		r.dropped++
	} else {
		r.count++
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % n
}

// drain returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drain() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	n := len(r.buf)
	out := make([]bufferedMsg, 0, r.count)
	for i := r.head - r.count; i < r.head; i++ {
		out = append(out, r.buf[(i+n)%n])
	}
	if r.dropped > 0 {
		r.log.Warn("offline buffer overflowed", zap.Int("dropped", r.dropped))
	}
	r.head, r.count, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int { return r.count }
