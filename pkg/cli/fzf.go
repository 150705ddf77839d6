package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SelectWithFzf shows items ("name: description" lines are fine) in fzf and
// returns the part before the first colon of the selected line.
func SelectWithFzf(items []string) (string, error) {
	cmd := exec.Command("fzf", "--height", "40%", "--border")
	cmd.Stdin = strings.NewReader(strings.Join(items, "\n") + "\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	return parseFzfSelection(out.String())
}

func parseFzfSelection(out string) (string, error) {
	selection := strings.TrimSpace(out)
	name, _, _ := strings.Cut(selection, ":")
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("nothing selected")
}

// imageExtensions are the files offered by SelectFileWithFzf.
var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

func findImagesExpr() string {
	parts := make([]string, len(imageExtensions))
	for i, ext := range imageExtensions {
		parts[i] = "-iname '*." + ext + "'"
	}
	return "\\( " + strings.Join(parts, " -o ") + " \\)"
}

// filePreviewCommand picks an fzf --preview command for the detected terminal;
// each chain ends in chafa.
func filePreviewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		return "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	case isSixelCapable():
		return "img2sixel {} 2>/dev/null || " + chafa
	default:
		return chafa
	}
}

// SelectFileWithFzf lists image files under startDir with find and lets the
// user pick one in fzf. Both tools must be on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"find %s -type f %s | fzf --height 100%% --border --prompt='Files> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir), findImagesExpr(), filePreviewCommand(),
	)
	cmd := exec.Command("bash", "-lc", cmdStr)
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}
	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages deletes images left behind by the kitty previewer. Other
// terminals ignore the sequence.
func clearKittyImages() {
	fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
}
