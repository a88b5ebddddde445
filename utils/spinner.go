package utils

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

var (
	spinnerMu sync.Mutex
	active    *spinner.Spinner
)

// StartSpinner shows a progress spinner on w until StopSpinner is called
func StartSpinner(w io.Writer, suffix string) {
	spinnerMu.Lock()
	defer spinnerMu.Unlock()

	if active != nil {
		active.Lock()
		active.Suffix = " " + suffix
		active.Unlock()
		return
	}
	active = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	active.Suffix = " " + suffix
	active.Start()
}

// StopSpinner clears the spinner. Safe to call when none is running.
func StopSpinner() {
	spinnerMu.Lock()
	defer spinnerMu.Unlock()

	if active == nil {
		return
	}
	active.Stop()
	active = nil
}
