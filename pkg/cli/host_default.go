//go:build !imagick

package cli

func newHost() Host { return NewFileHost() }
