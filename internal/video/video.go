// Package video presents the VGA framebuffer in a window and translates
// host keyboard input into PS/2 scan codes and BIOS keystrokes, grounded
// on the teacher's VideoOutput interface split between video_backend_ebiten.go
// and video_backend_headless.go (build-tag-selected backends behind one
// interface), per spec.md §1's treatment of the windowed blit as an
// external collaborator.
package video

// KeyEvent is one host key transition, already resolved to both sides of
// the keyboard path this emulator exposes: the 8042 scan code the PS/2
// queue carries, and the already-ASCII-translated BIOS keystroke for
// INT 16h/INT 21h.
type KeyEvent struct {
	ScanCode uint8
	BIOSKey  uint16
	Pressed  bool
}

// Backend is the narrow surface internal/machine drives: present one VGA
// frame, and drain whatever keyboard input arrived since the last call.
type Backend interface {
	Start(width, height int) error
	Stop() error
	PresentFrame(rgba []byte, width, height int)
	PollInput() []KeyEvent
}
