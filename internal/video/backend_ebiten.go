//go:build !headless

package video

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// ebitenKeys maps each ebiten key that Update polls every frame for edge
// transitions to its namedScanCodes name; being a map, it is visited in no
// fixed order. Covers the letters, digits and
// punctuation namedScanCodes knows about plus the handful of control keys,
// grounded on video_backend_ebiten.go's handleKeyboardInput specialKeys
// list generalized to a full scan table instead of an ASCII input-byte path.
var ebitenKeys = buildEbitenKeyTable()

func buildEbitenKeyTable() map[ebiten.Key]string {
	m := map[ebiten.Key]string{
		ebiten.KeyEscape: "Escape", ebiten.Key1: "1", ebiten.Key2: "2", ebiten.Key3: "3",
		ebiten.Key4: "4", ebiten.Key5: "5", ebiten.Key6: "6", ebiten.Key7: "7",
		ebiten.Key8: "8", ebiten.Key9: "9", ebiten.Key0: "0", ebiten.KeyMinus: "Minus",
		ebiten.KeyEqual: "Equals", ebiten.KeyBackspace: "Backspace", ebiten.KeyTab: "Tab",
		ebiten.KeyQ: "Q", ebiten.KeyW: "W", ebiten.KeyE: "E", ebiten.KeyR: "R",
		ebiten.KeyT: "T", ebiten.KeyY: "Y", ebiten.KeyU: "U", ebiten.KeyI: "I",
		ebiten.KeyO: "O", ebiten.KeyP: "P", ebiten.KeyBracketLeft: "LeftBracket", ebiten.KeyBracketRight: "RightBracket",
		ebiten.KeyEnter: "Enter", ebiten.KeyControlLeft: "ControlLeft", ebiten.KeyA: "A", ebiten.KeyS: "S",
		ebiten.KeyD: "D", ebiten.KeyF: "F", ebiten.KeyG: "G", ebiten.KeyH: "H",
		ebiten.KeyJ: "J", ebiten.KeyK: "K", ebiten.KeyL: "L", ebiten.KeySemicolon: "Semicolon",
		ebiten.KeyApostrophe: "Apostrophe", ebiten.KeyBackquote: "Grave", ebiten.KeyShiftLeft: "ShiftLeft", ebiten.KeyBackslash: "Backslash",
		ebiten.KeyZ: "Z", ebiten.KeyX: "X", ebiten.KeyC: "C", ebiten.KeyV: "V",
		ebiten.KeyB: "B", ebiten.KeyN: "N", ebiten.KeyM: "M", ebiten.KeyComma: "Comma",
		ebiten.KeyPeriod: "Period", ebiten.KeySlash: "Slash", ebiten.KeyShiftRight: "ShiftRight", ebiten.KeyAltLeft: "AltLeft",
		ebiten.KeySpace: "Space", ebiten.KeyArrowUp: "Up", ebiten.KeyArrowLeft: "Left",
		ebiten.KeyArrowRight: "Right", ebiten.KeyArrowDown: "Down",
	}
	return m
}

// ebitenBackend presents the VGA framebuffer in a resizable window and
// polls ebiten's per-frame key-edge state, grounded on video_backend_ebiten.go's
// EbitenOutput (frame buffer behind a mutex, Update as the input-poll point,
// RunGame driven from its own goroutine so Start can return to the caller).
type ebitenBackend struct {
	keymap map[string]string

	mu     sync.Mutex
	img    *ebiten.Image
	width  int
	height int

	pending []KeyEvent
}

// NewBackend returns the windowed video backend. keymap remaps a host key
// name (as named in namedScanCodes) to the guest scan-code name it should
// produce, per config.Config.Keymap / spec.md §6's [keymap] section; a host
// key absent from keymap passes through under its own name.
func NewBackend(keymap map[string]string) Backend {
	return &ebitenBackend{keymap: keymap}
}

func (e *ebitenBackend) Start(width, height int) error {
	e.width, e.height = width, height
	e.img = ebiten.NewImage(width, height)
	ebiten.SetWindowSize(width*2, height*2)
	ebiten.SetWindowTitle("pcemu")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	go func() {
		if err := ebiten.RunGame(e); err != nil {
			fmt.Printf("video: ebiten run loop exited: %v\n", err)
		}
	}()
	return nil
}

func (e *ebitenBackend) Stop() error { return nil }

func (e *ebitenBackend) PresentFrame(rgba []byte, width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if width != e.width || height != e.height {
		e.width, e.height = width, height
		e.img = ebiten.NewImage(width, height)
	}
	e.img.WritePixels(rgba)
}

func (e *ebitenBackend) PollInput() []KeyEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	return out
}

func (e *ebitenBackend) resolve(hostName string) string {
	if mapped, ok := e.keymap[hostName]; ok {
		return mapped
	}
	return hostName
}

// Update is ebiten.Game's per-tick callback; it doubles as this backend's
// input-polling point, matching EbitenOutput.Update's handleKeyboardInput
// call generalized from an ASCII byte stream to scan-code/BIOS-key pairs.
func (e *ebitenBackend) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, name := range ebitenKeys {
		guestName := e.resolve(name)
		scan, biosKey, ok := translate(guestName)
		if !ok {
			continue
		}
		if inpututil.IsKeyJustPressed(key) {
			e.pending = append(e.pending, KeyEvent{ScanCode: scan, BIOSKey: biosKey, Pressed: true})
		}
		if inpututil.IsKeyJustReleased(key) {
			e.pending = append(e.pending, KeyEvent{ScanCode: scan | 0x80, BIOSKey: biosKey, Pressed: false})
		}
	}
	return nil
}

func (e *ebitenBackend) Draw(screen *ebiten.Image) {
	e.mu.Lock()
	img := e.img
	e.mu.Unlock()
	if img != nil {
		screen.DrawImage(img, nil)
	}
}

func (e *ebitenBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}
