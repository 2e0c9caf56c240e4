package action

import (
	"errors"
	"testing"
)

func TestVirtualKey(t *testing.T) {
	cases := map[string]byte{
		"F1":    0x70,
		"F3":    0x72,
		"F10":   0x79,
		"F12":   0x7B,
		"E":     'E',
		"7":     '7',
		"SPACE": 0x20,
		"ESC":   0x1B,
	}
	for in, want := range cases {
		got, ok := VirtualKey(in)
		if !ok || got != want {
			t.Errorf("VirtualKey(%q) = %#x,%v want %#x", in, got, ok, want)
		}
	}
	for _, bad := range []string{"", "F0", "F13", "FX", "ab", "?"} {
		if _, ok := VirtualKey(bad); ok {
			t.Errorf("VirtualKey(%q) should fail", bad)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if k, err := NormalizeKey(" e "); err != nil || k != "E" {
		t.Fatalf("normalize: %q %v", k, err)
	}
	if _, err := NormalizeKey("hyper"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestKeyboard_PressKey(t *testing.T) {
	var sent []string
	kb := &Keyboard{press: func(k string) error { sent = append(sent, k); return nil }}
	if err := kb.PressKey("f5"); err != nil {
		t.Fatalf("press: %v", err)
	}
	if err := kb.PressKey("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if len(sent) != 1 || sent[0] != "F5" {
		t.Fatalf("unexpected presses %v", sent)
	}

	boom := errors.New("boom")
	kb.press = func(string) error { return boom }
	if err := kb.PressKey("E"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}
