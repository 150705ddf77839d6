package cli

import (
	"github.com/Fepozopo/dithr/pkg/source"
)

// Host is the document backend the session captures from.
type Host interface {
	source.Capturer
	Open(path string) error
	Close()
}

// fileHost adapts source.FileSource to Host.
type fileHost struct {
	*source.FileSource
}

func (h fileHost) Open(path string) error {
	_, err := h.FileSource.Open(path)
	return err
}

// NewFileHost returns a Host backed by the pure-Go file decoder.
func NewFileHost() Host {
	return fileHost{source.NewFileSource()}
}
