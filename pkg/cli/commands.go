package cli

import (
	"github.com/Fepozopo/dithr/pkg/preview"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// ArgSpec describes a single prompt argument. Min and Max are inclusive and
// only checked for numeric types.
type ArgSpec struct {
	Name        string
	Type        string // "int", "float", "percent", "enum", "list", "path"
	Required    bool
	Default     string
	Description string
	Min         *float64
	Max         *float64
	Options     []string // for enum
}

// CommandSpec defines a REPL command bound to a key.
type CommandSpec struct {
	Key         rune
	Name        string
	Args        []ArgSpec
	Usage       string
	Description string
}

func bound(v float64) *float64 { return &v }

// Commands is the registry the REPL, help text and prompts read from.
var Commands = []CommandSpec{
	{
		Key:         'o',
		Name:        "open",
		Args:        []ArgSpec{{Name: "path", Type: "path", Required: true, Description: "image file to open"}},
		Usage:       "open <path>",
		Description: "Open an image as the active document.",
	},
	{
		Key:  'l',
		Name: "levels",
		Args: []ArgSpec{
			{Name: "black", Type: "int", Default: "0", Description: "input black point", Min: bound(0), Max: bound(255)},
			{Name: "mid", Type: "float", Default: "1.0", Description: "midtone gamma", Min: bound(stdimg.MinMid), Max: bound(stdimg.MaxMid)},
			{Name: "white", Type: "int", Default: "255", Description: "input white point", Min: bound(0), Max: bound(255)},
		},
		Usage:       "levels [black] [mid] [white]",
		Description: "Adjust the input levels applied before dithering.",
	},
	{
		Key:         'p',
		Name:        "palette",
		Args:        []ArgSpec{{Name: "colors", Type: "list", Required: true, Default: "#000000,#ffffff", Description: "comma separated #RRGGBB colors"}},
		Usage:       "palette <#RRGGBB,...>",
		Description: "Replace the target palette.",
	},
	{
		Key:  'c',
		Name: "scale",
		Args: []ArgSpec{{Name: "scale", Type: "percent", Required: true, Default: "10",
			Description: "processing scale", Min: bound(preview.MinScale), Max: bound(preview.MaxScale)}},
		Usage:       "scale <5-50>%",
		Description: "Set the processing scale. Changing it forces a fresh capture.",
	},
	{
		Key:  'z',
		Name: "zoom",
		Args: []ArgSpec{{Name: "zoom", Type: "percent", Required: true, Default: "100",
			Description: "preview zoom", Min: bound(preview.MinZoom), Max: bound(preview.MaxZoom)}},
		Usage:       "zoom <50-200>%",
		Description: "Set the preview zoom. Does not reprocess.",
	},
	{
		Key:         'a',
		Name:        "algorithm",
		Args:        []ArgSpec{{Name: "algorithm", Type: "enum", Required: true, Default: stdimg.DefaultAlgorithm, Options: stdimg.Algorithms()}},
		Usage:       "algorithm <name>",
		Description: "Select the error diffusion algorithm.",
	},
	{Key: 'r', Name: "reprocess", Usage: "reprocess", Description: "Reprocess now, reusing the cached capture when possible."},
	{Key: 'R', Name: "recapture", Usage: "recapture", Description: "Capture the document again and reprocess."},
	{
		Key:         'w',
		Name:        "write-preset",
		Args:        []ArgSpec{{Name: "path", Type: "path", Required: true, Description: "YAML preset file"}},
		Usage:       "write-preset <path>",
		Description: "Save the current settings as a preset.",
	},
	{
		Key:         'i',
		Name:        "load-preset",
		Args:        []ArgSpec{{Name: "path", Type: "path", Required: true, Description: "YAML preset file"}},
		Usage:       "load-preset <path>",
		Description: "Load settings from a preset and reprocess.",
	},
	{
		Key:         's',
		Name:        "save",
		Args:        []ArgSpec{{Name: "path", Type: "path", Required: true, Description: "output file (.png, .gif, .jpg, .bmp, .tiff)"}},
		Usage:       "save <path>",
		Description: "Write the last dithered result at processing resolution.",
	},
	{Key: 'u', Name: "update", Usage: "update", Description: "Check for a newer release."},
	{Key: 'h', Name: "help", Usage: "help", Description: "Show this help message."},
	{Key: 'q', Name: "quit", Usage: "quit", Description: "Quit."},
}
