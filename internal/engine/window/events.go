package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/model-viewer/internal/engine/input"
)

var keymap = map[sdl.Keycode]input.Key{
	sdl.K_w:      input.KeyW,
	sdl.K_a:      input.KeyA,
	sdl.K_s:      input.KeyS,
	sdl.K_d:      input.KeyD,
	sdl.K_o:      input.KeyO,
	sdl.K_r:      input.KeyR,
	sdl.K_UP:     input.KeyUp,
	sdl.K_DOWN:   input.KeyDown,
	sdl.K_LEFT:   input.KeyLeft,
	sdl.K_RIGHT:  input.KeyRight,
	sdl.K_ESCAPE: input.KeyEscape,
	sdl.K_F12:    input.KeyF12,
	sdl.K_SPACE:  input.KeySpace,
}

var buttonmap = map[uint8]input.Button{
	sdl.BUTTON_LEFT:   input.ButtonLeft,
	sdl.BUTTON_MIDDLE: input.ButtonMiddle,
	sdl.BUTTON_RIGHT:  input.ButtonRight,
}

// PollEvents drains the SDL queue and appends the translated events to dst.
// Events the viewer has no use for are dropped.
func (w *Window) PollEvents(dst []input.Event) []input.Event {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			dst = append(dst, input.Event{Type: input.EventQuit})

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				// Resize in pixels, not screen coordinates.
				dw, dh := w.DrawableSize()
				dst = append(dst, input.Event{Type: input.EventWindowResize, Width: dw, Height: dh})
			case sdl.WINDOWEVENT_FOCUS_LOST:
				dst = append(dst, input.Event{Type: input.EventFocusLost})
			}

		case *sdl.KeyboardEvent:
			// Unmapped keys still carry modifier changes.
			key := keymap[e.Keysym.Sym]
			ev := input.Event{Key: key, Mod: mods(e.Keysym.Mod), Repeat: e.Repeat != 0}
			if e.Type == sdl.KEYDOWN {
				ev.Type = input.EventKeyDown
			} else {
				ev.Type = input.EventKeyUp
			}
			dst = append(dst, ev)

		case *sdl.MouseMotionEvent:
			dst = append(dst, input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DeltaX: int(e.XRel),
				DeltaY: int(e.YRel),
			})

		case *sdl.MouseButtonEvent:
			button, ok := buttonmap[e.Button]
			if !ok {
				continue
			}
			ev := input.Event{Type: input.EventMouseUp, MouseX: int(e.X), MouseY: int(e.Y), Button: button}
			if e.State == sdl.PRESSED {
				ev.Type = input.EventMouseDown
			}
			dst = append(dst, ev)

		case *sdl.MouseWheelEvent:
			y := float32(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				y = -y
			}
			dst = append(dst, input.Event{Type: input.EventMouseWheel, WheelY: y})

		case *sdl.DropEvent:
			if e.Type == sdl.DROPFILE && e.File != "" {
				dst = append(dst, input.Event{Type: input.EventDrop, Path: e.File})
			}
		}
	}
	return dst
}

func mods(m uint16) input.Mod {
	var out input.Mod
	if m&sdl.KMOD_CTRL != 0 {
		out |= input.ModCtrl
	}
	if m&sdl.KMOD_SHIFT != 0 {
		out |= input.ModShift
	}
	if m&sdl.KMOD_ALT != 0 {
		out |= input.ModAlt
	}
	if m&sdl.KMOD_GUI != 0 {
		out |= input.ModSuper
	}
	return out
}
