//go:build headless

package video

import (
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"
)

// asciiToName inverts namedScanCodes so a raw stdin byte can be resolved
// back to a guest-scancode name, built once from the shared table.
var asciiToName = func() map[byte]string {
	m := make(map[byte]string, len(namedScanCodes))
	for name, e := range namedScanCodes {
		if e.ascii != 0 {
			m[e.ascii] = name
		}
	}
	return m
}()

// headlessBackend discards every presented frame (no display server to draw
// to) but still accepts keyboard input from the controlling terminal, put
// into raw mode exactly as the teacher's TerminalHost does for its
// MMIO-attached console, so a headless run (CI, a server, an SSH session)
// can still drive a guest program interactively.
type headlessBackend struct {
	frameCount uint64

	fd           int
	oldTermState *term.State
	stopCh       chan struct{}
	done         chan struct{}
	stopOnce     sync.Once

	mu      sync.Mutex
	pending []KeyEvent
}

// NewBackend returns the headless backend. keymap is accepted for
// signature parity with the windowed constructor but unused: stdin bytes
// are resolved directly, with no host-to-guest key remapping layer.
func NewBackend(keymap map[string]string) Backend {
	return &headlessBackend{stopCh: make(chan struct{}), done: make(chan struct{})}
}

func (h *headlessBackend) Start(width, height int) error {
	h.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		// Not an interactive terminal (e.g. stdin redirected from a file in
		// CI): run with no input source rather than failing the whole run.
		close(h.done)
		return nil
	}
	h.oldTermState = oldState
	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return nil
	}

	go h.readLoop()
	return nil
}

func (h *headlessBackend) readLoop() {
	defer close(h.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}
		n, err := syscall.Read(h.fd, buf)
		if n > 0 {
			h.emit(buf[0])
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (h *headlessBackend) emit(b byte) {
	if b == '\r' {
		b = '\n'
	}
	name, ok := asciiToName[b]
	if !ok {
		return
	}
	scan, biosKey, ok := translate(name)
	if !ok {
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending,
		KeyEvent{ScanCode: scan, BIOSKey: biosKey, Pressed: true},
		KeyEvent{ScanCode: scan | 0x80, BIOSKey: biosKey, Pressed: false},
	)
	h.mu.Unlock()
}

func (h *headlessBackend) Stop() error {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.done
	if h.oldTermState != nil {
		_ = syscall.SetNonblock(h.fd, false)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
	return nil
}

func (h *headlessBackend) PresentFrame(rgba []byte, width, height int) {
	atomic.AddUint64(&h.frameCount, 1)
}

func (h *headlessBackend) PollInput() []KeyEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.pending
	h.pending = nil
	return out
}
