// Package input defines window-system independent input events and
// tracks which keys and buttons are held.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventDrop
	EventFocusLost
)

// Key is a physical key.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyO
	KeyR
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEscape
	KeyF12
	KeySpace
)

// Mod is a bit set of held modifier keys.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Button is a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

// Event is a processed input event.
type Event struct {
	Type   EventType
	Key    Key
	Mod    Mod
	Repeat bool

	Width  int
	Height int

	MouseX int
	MouseY int
	// Relative motion since the previous motion event.
	DeltaX int
	DeltaY int
	Button Button
	WheelY float32

	Path string // dropped file
}

// State tracks held keys and buttons across frames.
type State struct {
	keys    map[Key]bool
	buttons map[Button]bool
	mod     Mod
	events  []Event
}

// New creates an empty input state.
func New() *State {
	return &State{
		keys:    make(map[Key]bool),
		buttons: make(map[Button]bool),
		events:  make([]Event, 0, 16),
	}
}

// Update replaces the current frame's events and applies them to the
// held key and button sets. It reports whether a quit was requested.
func (s *State) Update(events []Event) bool {
	s.events = append(s.events[:0], events...)

	quit := false
	for _, e := range events {
		switch e.Type {
		case EventQuit:
			quit = true
		case EventKeyDown:
			s.keys[e.Key] = true
			s.mod = e.Mod
		case EventKeyUp:
			delete(s.keys, e.Key)
			s.mod = e.Mod
		case EventMouseDown:
			s.buttons[e.Button] = true
		case EventMouseUp:
			delete(s.buttons, e.Button)
		case EventFocusLost:
			// Up events are not delivered while unfocused.
			s.Release()
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (s *State) Events() []Event {
	return s.events
}

// IsKeyDown reports whether key is held.
func (s *State) IsKeyDown(key Key) bool {
	return s.keys[key]
}

// Mods returns the modifiers reported with the latest key event.
func (s *State) Mods() Mod {
	return s.mod
}

// IsButtonDown reports whether button is held.
func (s *State) IsButtonDown(button Button) bool {
	return s.buttons[button]
}

// IsKeyPressed reports whether key went down this frame, ignoring
// auto-repeat.
func (s *State) IsKeyPressed(key Key) bool {
	for _, e := range s.events {
		if e.Type == EventKeyDown && e.Key == key && !e.Repeat {
			return true
		}
	}
	return false
}

// Release forgets every held key and button.
func (s *State) Release() {
	clear(s.keys)
	clear(s.buttons)
	s.mod = 0
}
