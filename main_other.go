//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Check for -gui early (before flag parsing in run())
	if wantsGUI(os.Args[1:]) {
		initGUI() // takes main thread, calls run() in goroutine
		return
	}
	// the hotkey backends on macOS and Windows need the main thread
	mainthread.Init(run)
}
