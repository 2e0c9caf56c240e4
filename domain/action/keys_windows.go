package action

import (
	"time"

	"golang.org/x/sys/windows"
)

var (
	user32     = windows.NewLazySystemDLL("user32.dll")
	keybdEvent = user32.NewProc("keybd_event")
)

const keyEventKeyUp = 0x0002

// pressKey sends key down, holds briefly, then key up via keybd_event.
func pressKey(k string) error {
	vk, ok := VirtualKey(k)
	if !ok {
		return ErrUnknownKey
	}
	if err := keybdEvent.Find(); err != nil {
		return err
	}
	_, _, _ = keybdEvent.Call(uintptr(vk), 0, 0, 0)
	time.Sleep(40 * time.Millisecond)
	_, _, _ = keybdEvent.Call(uintptr(vk), 0, keyEventKeyUp, 0)
	return nil
}
