//go:build imagick

package cli

import "github.com/Fepozopo/dithr/pkg/source"

func newHost() Host { return source.NewImagickSource() }
