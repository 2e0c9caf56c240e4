package action

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnknownKey is returned for key names that cannot be sent.
var ErrUnknownKey = errors.New("action: unknown key")

// KeyPresser sends a single key press to the focused window.
type KeyPresser interface {
	PressKey(key string) error
}

// named maps accepted multi-letter names to Windows virtual-key codes.
var named = map[string]byte{
	"SPACE":  0x20,
	"ENTER":  0x0D,
	"RETURN": 0x0D,
	"TAB":    0x09,
	"ESC":    0x1B,
	"ESCAPE": 0x1B,
}

// NormalizeKey upper-cases key and checks it is supported. Accepted forms are
// F1 to F12, a single letter or digit, and the names in the named table.
func NormalizeKey(key string) (string, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if _, ok := VirtualKey(k); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return k, nil
}

// VirtualKey converts a normalized key name to its Windows virtual-key code.
func VirtualKey(k string) (byte, bool) {
	if len(k) == 1 {
		c := k[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return c, true
		}
		return 0, false
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'F' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return byte(0x70 + n - 1), true
		}
		return 0, false
	}
	vk, ok := named[k]
	return vk, ok
}

// Keyboard presses keys through the platform backend.
type Keyboard struct {
	logger *slog.Logger
	press  func(string) error
}

var _ KeyPresser = (*Keyboard)(nil)

// NewKeyboard returns a Keyboard bound to the OS input API.
func NewKeyboard(logger *slog.Logger) *Keyboard {
	return &Keyboard{logger: logger, press: pressKey}
}

// PressKey implements KeyPresser.
func (k *Keyboard) PressKey(key string) error {
	norm, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := k.press(norm); err != nil {
		if k.logger != nil {
			k.logger.Error("key press failed", "key", norm, "error", err)
		}
		return fmt.Errorf("action: press %s: %w", norm, err)
	}
	if k.logger != nil {
		k.logger.Debug("key pressed", "key", norm)
	}
	return nil
}
