// Package clipboard writes copied names and secrets to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

type Clipboard interface {
	WriteAll(text string) error
}

var ErrUnsupported = errors.New("no clipboard utility available")

// System uses the platform clipboard (xclip, xsel, wl-copy, pbcopy or the Windows API).
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process clipboard for headless use.
type Memory struct {
	Text string
	Err  error
}

func (m *Memory) WriteAll(text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Text = text
	return nil
}
