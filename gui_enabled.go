//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"woodenfish/gui"
)

var guiMode = false

var (
	guiApp      *gui.App
	runFinishCh = make(chan struct{})
)

// initGUI hands the main thread to fyne and starts run on a goroutine once
// the window exists. It returns after run has closed the app.
func initGUI() {
	guiMode = true
	runtime.LockOSThread()

	guiApp = gui.NewApp(run)
	if err := gui.Run(guiApp); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting GUI: %v\n", err)
		os.Exit(1)
	}
	select {
	case <-runFinishCh:
	case <-time.After(3 * time.Second):
		fmt.Fprintln(os.Stderr, "woodenfish: shutdown timed out")
	}
}

func guiSink() EventSink { return guiApp }

func guiAttach(a *app) {
	guiApp.Attach(a)
	go func() {
		<-a.Loaded()
		guiApp.SettingsChanged(a.Settings())
	}()
}

func guiDone() <-chan struct{} { return guiApp.Done() }
func guiQuit()                 { guiApp.Quit() }
func runFinished()             { close(runFinishCh) }
