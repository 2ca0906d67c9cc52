package system

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrNoClipboard = errors.New("no clipboard utility available")

type Clipboard struct{}

func NewClipboard() (*Clipboard, error) {
	if clipboard.Unsupported {
		return nil, ErrNoClipboard
	}
	return &Clipboard{}, nil
}

func (Clipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

func (Clipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
