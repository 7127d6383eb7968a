//go:build windows || plan9 || js || wasip1

package terminal

import "os"

func resizeSignals() []os.Signal {
	return nil
}
