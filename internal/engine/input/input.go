// Package input tracks keyboard and mouse state between frames.
package input

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// State accumulates GLFW input events. Attach binds the callbacks;
// the frame loop then reads movement axes and the look delta.
type State struct {
	keys map[glfw.Key]bool

	lookX, lookY float64
	lastX, lastY float64
	seeded       bool

	quit bool
}

// New creates an empty input state.
func New() *State {
	return &State{
		keys: make(map[glfw.Key]bool),
	}
}

// Attach registers the key and cursor callbacks on a window.
func (s *State) Attach(w *glfw.Window) {
	w.SetKeyCallback(s.onKey)
	w.SetCursorPosCallback(s.onCursor)
}

func (s *State) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	switch action {
	case glfw.Press:
		if key == glfw.KeyEscape {
			s.quit = true
		}
		s.keys[key] = true
	case glfw.Release:
		delete(s.keys, key)
	}
}

// onCursor accumulates raw mouse movement. The first event only seeds
// the reference position so the view does not jump on focus.
func (s *State) onCursor(_ *glfw.Window, x, y float64) {
	if !s.seeded {
		s.lastX, s.lastY = x, y
		s.seeded = true
		return
	}
	s.lookX += x - s.lastX
	s.lookY += y - s.lastY
	s.lastX, s.lastY = x, y
}

func (s *State) down(key glfw.Key) bool {
	return s.keys[key]
}

// Direction returns the requested movement on each axis in -1..1:
// W/S forward, D/A strafe, space/shift rise and sink.
func (s *State) Direction() (forward, right, up float32) {
	if s.down(glfw.KeyW) {
		forward++
	}
	if s.down(glfw.KeyS) {
		forward--
	}
	if s.down(glfw.KeyD) {
		right++
	}
	if s.down(glfw.KeyA) {
		right--
	}
	if s.down(glfw.KeySpace) {
		up++
	}
	if s.down(glfw.KeyLeftShift) {
		up--
	}
	return forward, right, up
}

// ConsumeLookDelta returns the mouse movement accumulated since the
// previous call and resets it.
func (s *State) ConsumeLookDelta() (dx, dy float32) {
	dx, dy = float32(s.lookX), float32(s.lookY)
	s.lookX, s.lookY = 0, 0
	return dx, dy
}

// Quit reports whether escape was pressed.
func (s *State) Quit() bool {
	return s.quit
}
