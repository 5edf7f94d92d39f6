// Package window owns the GLFW window and the WebGPU surface bound to it.
package window

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/logger"
)

func init() {
	// GLFW event handling must stay on the main OS thread.
	runtime.LockOSThread()
}

// Window wraps a GLFW window opened without a client graphics API.
// Rendering goes through the WebGPU surface created against it.
type Window struct {
	glfw    *glfw.Window
	surface *wgpu.Surface
}

// New opens a window and binds a surface to it on the given instance.
func New(instance *wgpu.Instance, title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing glfw")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "creating window")
	}

	logger.Info("window opened",
		zap.String("title", title),
		zap.Int("width", width),
		zap.Int("height", height))

	return &Window{
		glfw:    win,
		surface: instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win)),
	}, nil
}

// Raw returns the GLFW window for input callbacks.
func (w *Window) Raw() *glfw.Window {
	return w.glfw
}

// Surface returns the WebGPU surface bound to the window.
func (w *Window) Surface() *wgpu.Surface {
	return w.surface
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) {
	return w.glfw.GetFramebufferSize()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.glfw.ShouldClose()
}

// Poll pumps pending window events.
func (w *Window) Poll() {
	glfw.PollEvents()
}

// CaptureCursor hides the cursor and locks it to the window for
// free-look mouse input.
func (w *Window) CaptureCursor() {
	w.glfw.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
}

// Close destroys the window and shuts GLFW down.
func (w *Window) Close() {
	logger.Info("closing window")
	if w.surface != nil {
		w.surface.Release()
		w.surface = nil
	}
	w.glfw.Destroy()
	glfw.Terminate()
}
