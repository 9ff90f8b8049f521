//go:build !ebiten

package viewer

import (
	"errors"

	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
)

// ErrNoGUI is returned by Run in builds without the ebiten tag.
var ErrNoGUI = errors.New("the viewer requires building with the 'ebiten' tag (go build -tags ebiten)")

// Run always fails in the headless build.
func Run(*sandbox.Sandbox, Options) error {
	return ErrNoGUI
}
