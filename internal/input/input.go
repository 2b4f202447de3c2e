package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical viewer action, not a physical key
type Action int

const (
	ActionPanUp Action = iota
	ActionPanDown
	ActionPanLeft
	ActionPanRight
	ActionFast
	ActionZoomIn
	ActionZoomOut
	ActionInspect
	ActionToggleProfiling
	ActionQuit
	ActionCount // Sentinel value for array sizing
)

// InputManager maps physical keys to logical actions and tracks their state
type InputManager struct {
	mu sync.RWMutex

	// One key can map to multiple actions
	keyToActions map[glfw.Key][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	// Accumulated vertical scroll since the last PostUpdate
	scroll float64
}

// NewInputManager creates an InputManager with the default viewer bindings
func NewInputManager() *InputManager {
	im := &InputManager{keyToActions: make(map[glfw.Key][]Action)}

	im.BindKey(glfw.KeyW, ActionPanUp)
	im.BindKey(glfw.KeyUp, ActionPanUp)
	im.BindKey(glfw.KeyS, ActionPanDown)
	im.BindKey(glfw.KeyDown, ActionPanDown)
	im.BindKey(glfw.KeyA, ActionPanLeft)
	im.BindKey(glfw.KeyLeft, ActionPanLeft)
	im.BindKey(glfw.KeyD, ActionPanRight)
	im.BindKey(glfw.KeyRight, ActionPanRight)
	im.BindKey(glfw.KeyLeftShift, ActionFast)
	im.BindKey(glfw.KeyRightShift, ActionFast)
	im.BindKey(glfw.KeyEqual, ActionZoomIn)
	im.BindKey(glfw.KeyKPAdd, ActionZoomIn)
	im.BindKey(glfw.KeyMinus, ActionZoomOut)
	im.BindKey(glfw.KeyKPSubtract, ActionZoomOut)
	im.BindKey(glfw.KeyI, ActionInspect)
	im.BindKey(glfw.KeyV, ActionToggleProfiling)
	im.BindKey(glfw.KeyEscape, ActionQuit)

	return im
}

// BindKey binds a physical key to a logical action
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.keyToActions, key)
}

// HandleKeyEvent processes a key event and updates internal state
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	actions, ok := im.keyToActions[key]
	if !ok {
		return
	}
	isPressed := action == glfw.Press || action == glfw.Repeat
	for _, act := range actions {
		if isPressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		if !isPressed && im.currentState[act] {
			im.justReleased[act] = true
		}
		im.currentState[act] = isPressed
	}
}

// HandleScroll accumulates a scroll wheel event
func (im *InputManager) HandleScroll(yoff float64) {
	im.mu.Lock()
	im.scroll += yoff
	im.mu.Unlock()
}

// Attach installs the key and scroll callbacks on window
func (im *InputManager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		im.HandleScroll(yoff)
	})
}

// PostUpdate must be called at the end of each frame to reset edge flags and scroll
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.justPressed = [ActionCount]bool{}
	im.justReleased = [ActionCount]bool{}
	im.scroll = 0
}

// IsActive returns true if the action is currently held down
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.currentState[action]
}

// JustPressed returns true only if the action was pressed this frame
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justPressed[action]
}

// JustReleased returns true only if the action was released this frame
func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justReleased[action]
}

// Scroll returns the scroll accumulated this frame
func (im *InputManager) Scroll() float64 {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.scroll
}

// PanAxis returns the held pan direction as (-1..1, -1..1), y up.
func (im *InputManager) PanAxis() (dx, dy float64) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	if im.currentState[ActionPanRight] {
		dx++
	}
	if im.currentState[ActionPanLeft] {
		dx--
	}
	if im.currentState[ActionPanUp] {
		dy++
	}
	if im.currentState[ActionPanDown] {
		dy--
	}
	return dx, dy
}
