package lcd

// Public API to easy create display stubs to test your code.

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockPort is a Porter over plain buffers. Feed device responses with
// FeedRead, inspect outgoing bytes with TxBytes. FailWrites makes the next
// N writes fail, to exercise retry and recovery paths.
type MockPort struct {
	mu         sync.Mutex
	rbuf       bytes.Buffer
	wbuf       bytes.Buffer
	FailWrites int
	WriteErr   error
	closed     bool
}

func NewMockPort() *MockPort { return &MockPort{} }

func (mp *MockPort) FeedRead(b []byte) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.rbuf.Write(b)
}

func (mp *MockPort) TxBytes() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]byte(nil), mp.wbuf.Bytes()...)
}

func (mp *MockPort) ResetTx() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.wbuf.Reset()
}

func (mp *MockPort) Closed() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.closed
}

func (mp *MockPort) Read(b []byte) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.rbuf.Len() == 0 {
		// short read, like a serial port timeout
		return 0, nil
	}
	return mp.rbuf.Read(b)
}

func (mp *MockPort) Write(b []byte) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.closed {
		return 0, io.ErrClosedPipe
	}
	if mp.FailWrites > 0 {
		mp.FailWrites--
		err := mp.WriteErr
		if err == nil {
			err = io.ErrShortWrite
		}
		return 0, err
	}
	return mp.wbuf.Write(b)
}

func (mp *MockPort) SetReadTimeout(time.Duration) error { return nil }

func (mp *MockPort) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.closed = true
	return nil
}
