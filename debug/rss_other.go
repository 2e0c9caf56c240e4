//go:build !windows

package debug

func workingSet() (uint64, bool) { return 0, false }
