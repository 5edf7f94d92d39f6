package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// The callbacks never touch the window argument, so tests drive them
// directly without creating one.

func press(s *State, key glfw.Key) {
	s.onKey(nil, key, 0, glfw.Press, 0)
}

func release(s *State, key glfw.Key) {
	s.onKey(nil, key, 0, glfw.Release, 0)
}

func TestDirectionAxes(t *testing.T) {
	s := New()

	f, r, u := s.Direction()
	if f != 0 || r != 0 || u != 0 {
		t.Fatalf("idle direction = (%v, %v, %v), want zero", f, r, u)
	}

	press(s, glfw.KeyW)
	press(s, glfw.KeyD)
	press(s, glfw.KeySpace)
	f, r, u = s.Direction()
	if f != 1 || r != 1 || u != 1 {
		t.Errorf("direction = (%v, %v, %v), want (1, 1, 1)", f, r, u)
	}

	release(s, glfw.KeyW)
	press(s, glfw.KeyS)
	f, _, _ = s.Direction()
	if f != -1 {
		t.Errorf("forward = %v after reversing, want -1", f)
	}
}

func TestDirectionOpposingKeysCancel(t *testing.T) {
	s := New()
	press(s, glfw.KeyW)
	press(s, glfw.KeyS)

	if f, _, _ := s.Direction(); f != 0 {
		t.Errorf("forward = %v with both keys held, want 0", f)
	}
}

func TestConsumeLookDelta(t *testing.T) {
	s := New()

	// First event seeds the reference position only.
	s.onCursor(nil, 100, 100)
	if dx, dy := s.ConsumeLookDelta(); dx != 0 || dy != 0 {
		t.Fatalf("seed event produced delta (%v, %v)", dx, dy)
	}

	s.onCursor(nil, 110, 95)
	s.onCursor(nil, 112, 95)
	dx, dy := s.ConsumeLookDelta()
	if dx != 12 || dy != -5 {
		t.Errorf("delta = (%v, %v), want (12, -5)", dx, dy)
	}

	// Consuming resets the accumulator.
	if dx, dy := s.ConsumeLookDelta(); dx != 0 || dy != 0 {
		t.Errorf("second consume = (%v, %v), want zero", dx, dy)
	}
}

func TestQuitOnEscape(t *testing.T) {
	s := New()
	if s.Quit() {
		t.Fatal("fresh state reports quit")
	}

	press(s, glfw.KeyEscape)
	if !s.Quit() {
		t.Error("escape did not request quit")
	}
}
