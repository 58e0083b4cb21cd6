package input

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// keyNames maps common key names to X keysyms
var keyNames = map[string]string{
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"ctrl":      "ctrl",
	"control":   "ctrl",
	"alt":       "alt",
	"shift":     "shift",
	"win":       "super",
	"super":     "super",
	"cmd":       "super",
}

// Keysym translates a key name into the keysym xdotool expects.
// Unknown names pass through unchanged.
func Keysym(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if sym, ok := keyNames[k]; ok {
		return sym
	}
	if len(k) >= 2 && k[0] == 'f' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 24 {
			return fmt.Sprintf("F%d", n)
		}
	}
	return strings.TrimSpace(key)
}

// MoveCursor moves the pointer to absolute screen coordinates
func (c *Controller) MoveCursor(ctx context.Context, x, y int) error {
	return c.exec(ctx, "mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

// Click presses and releases the left button at the current pointer position
func (c *Controller) Click(ctx context.Context) error {
	return c.exec(ctx, "click", "1")
}

// PressKey taps a single key
func (c *Controller) PressKey(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	return c.exec(ctx, "key", Keysym(key))
}

// PressCombo holds every key together, e.g. ctrl+shift+s
func (c *Controller) PressCombo(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}
	syms := make([]string, len(keys))
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("empty key in combination %v", keys)
		}
		syms[i] = Keysym(k)
	}
	return c.exec(ctx, "key", strings.Join(syms, "+"))
}
