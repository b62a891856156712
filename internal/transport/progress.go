package transport

import "filedrop/pkg/types"

// ProgressObserver receives a progress update after every chunk. Calls are
// made synchronously from the transfer loop and must not block for long.
type ProgressObserver interface {
	OnProgress(update types.ProgressUpdate)
}

// ProgressFunc adapts a function to ProgressObserver
type ProgressFunc func(update types.ProgressUpdate)

// OnProgress calls f(update)
func (f ProgressFunc) OnProgress(update types.ProgressUpdate) { f(update) }

// MultiObserver fans one update out to several observers in order
type MultiObserver []ProgressObserver

// OnProgress forwards update to every non-nil observer
func (m MultiObserver) OnProgress(update types.ProgressUpdate) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(update)
		}
	}
}
