package viewer

import (
	gomath "math"

	"github.com/Faultbox/model-viewer/internal/engine/camera"
	"github.com/Faultbox/model-viewer/internal/engine/input"
)

// Action is a request the application loop carries out.
type Action int

const (
	ActionQuit Action = iota + 1
	ActionOpen        // load Command.Path
	ActionOpenDialog  // ask the user for a model file
	ActionExport      // save the frame to the export directory
	ActionExportAs    // ask the user where to save the frame
	ActionResize      // Command.Width x Command.Height
	ActionResetCamera
	ActionMouseLook // Command.On toggles relative mouse mode
)

// Command is one action with its arguments.
type Command struct {
	Action Action
	Path   string
	Width  int
	Height int
	On     bool
}

var moveKeys = []struct {
	keys      [2]input.Key
	direction camera.Movement
}{
	{[2]input.Key{input.KeyW, input.KeyUp}, camera.Forward},
	{[2]input.Key{input.KeyS, input.KeyDown}, camera.Backward},
	{[2]input.Key{input.KeyA, input.KeyLeft}, camera.Left},
	{[2]input.Key{input.KeyD, input.KeyRight}, camera.Right},
}

// wheelStep is the travel of one wheel notch, in seconds of keyboard
// movement.
const wheelStep = 0.1

// Controller turns input into camera motion and commands.
type Controller struct {
	camera  *camera.Camera
	looking bool

	spinning  bool
	spinSpeed float32 // degrees per second
	spin      float32 // current angle in degrees
}

// NewController drives cam. spinSpeed is the turntable speed toggled
// with Space; zero disables it.
func NewController(cam *camera.Camera, spinSpeed float32) *Controller {
	return &Controller{camera: cam, spinSpeed: spinSpeed}
}

// Camera returns the driven camera.
func (c *Controller) Camera() *camera.Camera {
	return c.camera
}

// Looking reports whether mouse look is active.
func (c *Controller) Looking() bool {
	return c.looking
}

// Update applies one frame of input: mouse look from this frame's
// motion, movement from held keys scaled by dt, and commands from
// discrete events.
func (c *Controller) Update(in *input.State, dt float32) []Command {
	var cmds []Command

	for _, e := range in.Events() {
		switch e.Type {
		case input.EventQuit:
			cmds = append(cmds, Command{Action: ActionQuit})

		case input.EventWindowResize:
			cmds = append(cmds, Command{Action: ActionResize, Width: e.Width, Height: e.Height})

		case input.EventDrop:
			cmds = append(cmds, Command{Action: ActionOpen, Path: e.Path})

		case input.EventMouseDown:
			if e.Button == input.ButtonRight && !c.looking {
				c.looking = true
				cmds = append(cmds, Command{Action: ActionMouseLook, On: true})
			}

		case input.EventMouseUp:
			if e.Button == input.ButtonRight && c.looking {
				c.looking = false
				cmds = append(cmds, Command{Action: ActionMouseLook, On: false})
			}

		case input.EventFocusLost:
			if c.looking {
				c.looking = false
				cmds = append(cmds, Command{Action: ActionMouseLook, On: false})
			}

		case input.EventMouseMove:
			if c.looking {
				// Screen y grows downward, pitch grows upward.
				c.camera.HandleMouse(float32(e.DeltaX), float32(-e.DeltaY))
			}

		case input.EventMouseWheel:
			// Wheel up dollies toward the view direction.
			switch {
			case e.WheelY > 0:
				c.camera.HandleKeyboard(camera.Forward, e.WheelY*wheelStep)
			case e.WheelY < 0:
				c.camera.HandleKeyboard(camera.Backward, -e.WheelY*wheelStep)
			}

		case input.EventKeyDown:
			if e.Repeat {
				continue
			}
			if cmd, ok := c.keyCommand(e); ok {
				cmds = append(cmds, cmd)
			}
		}
	}

	for _, m := range moveKeys {
		if in.IsKeyDown(m.keys[0]) || in.IsKeyDown(m.keys[1]) {
			// Ctrl+S is a shortcut, not a step backward.
			if m.direction == camera.Backward && in.IsKeyDown(input.KeyS) && in.Mods()&input.ModCtrl != 0 {
				continue
			}
			c.camera.HandleKeyboard(m.direction, dt)
		}
	}

	if c.spinning {
		c.spin = float32(gomath.Mod(float64(c.spin+c.spinSpeed*dt), 360))
		if c.spin < 0 {
			c.spin += 360
		}
	}
	return cmds
}

func (c *Controller) keyCommand(e input.Event) (Command, bool) {
	switch {
	case e.Key == input.KeyEscape:
		return Command{Action: ActionQuit}, true
	case e.Key == input.KeyF12:
		return Command{Action: ActionExport}, true
	case e.Key == input.KeyS && e.Mod&input.ModCtrl != 0:
		return Command{Action: ActionExportAs}, true
	case e.Key == input.KeyO:
		return Command{Action: ActionOpenDialog}, true
	case e.Key == input.KeyR:
		return Command{Action: ActionResetCamera}, true
	case e.Key == input.KeySpace && c.spinSpeed != 0:
		c.spinning = !c.spinning
	}
	return Command{}, false
}

// Spin returns the turntable angle in degrees.
func (c *Controller) Spin() float32 {
	return c.spin
}
