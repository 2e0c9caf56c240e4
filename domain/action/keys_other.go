//go:build !windows

package action

import (
	"strings"

	"github.com/go-vgo/robotgo"
)

// robotgo spells a few keys differently.
var robotgoNames = map[string]string{
	"ESCAPE": "esc",
	"RETURN": "enter",
}

func pressKey(k string) error {
	name, ok := robotgoNames[k]
	if !ok {
		name = strings.ToLower(k)
	}
	return robotgo.KeyTap(name)
}
