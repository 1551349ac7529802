//go:build !gui

package main

import (
	"fmt"
	"os"
)

var guiMode = false

func initGUI() {
	fmt.Fprintln(os.Stderr, "woodenfish: built without GUI support (rebuild with -tags gui)")
	os.Exit(2)
}

// Stubs for non-GUI builds; run never reaches them since guiMode is false
// and -gui exits in initGUI.
func guiSink() EventSink       { return headlessSink{} }
func guiAttach(*app)           {}
func guiDone() <-chan struct{} { return nil }
func guiQuit()                 {}
func runFinished()             {}
