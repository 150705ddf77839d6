// Package cli is the interactive terminal front end: a single-key REPL that
// edits dithering parameters and previews results inline.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Fepozopo/dithr/pkg/config"
	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

func usage() {
	fmt.Println("Commands available:")
	for _, c := range Commands {
		fmt.Printf("  %c  - %s\n", c.Key, c.Description)
	}
}

// promptArgs asks for every argument of c. Blank answers keep the current value.
func promptArgs(store *MetaStore, s *Session, c CommandSpec) ([]string, error) {
	tooltip, _, _ := store.GetCommandHelp(c.Name)
	fmt.Println("\n" + tooltip + "\n")
	current := s.CurrentArgs(c.Name)
	raw := make([]string, len(c.Args))
	for i, a := range c.Args {
		cur := ""
		if i < len(current) {
			cur = current[i]
		}
		label := fmt.Sprintf("%s (%s)", a.Name, a.Type)
		if cur != "" {
			label += " [" + cur + "]"
		}
		var val string
		var err error
		switch {
		case a.Type == "path":
			val, err = PromptLineOrFzf(label + " ('/' for fzf): ")
		case a.Type == "enum":
			if sel, ferr := SelectWithFzf(a.Options); ferr == nil {
				val = sel
				fmt.Printf("%s: %s\n", a.Name, sel)
				break
			}
			val, err = PromptLine(label + ": ")
		default:
			val, err = PromptLine(label + ": ")
		}
		if err != nil {
			return nil, err
		}
		if val == "" {
			val = cur
		}
		raw[i] = val
	}
	return NormalizeArgs(store, c.Name, raw)
}

// RunCLI runs the REPL until 'q' or end of input. args may name an image to open.
func RunCLI(settings config.Settings, args []string) error {
	session, err := NewSession(newHost(), settings)
	if err != nil {
		return err
	}
	defer session.Close()
	log := logging.WithComponent(logging.ComponentCLI)
	store := NewMetaStore(Commands)

	fmt.Println("dithr - interactive dithering preview")
	if len(args) > 0 && args[0] != "" {
		if err := session.Open(args[0]); err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		session.Flush()
	}
	if !PreviewSupported() {
		fmt.Println("No image preview backend detected; results are reported as text.")
	}
	usage()

	for {
		fmt.Print("> ")
		line, err := readLine(stdin)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read input error: %v\n", err)
			return err
		}
		if line == "" {
			continue
		}
		key := []rune(line)[0]

		switch key {
		case 'h', '?':
			usage()
			fmt.Println(session.Status())
			continue
		case 'q':
			fmt.Println("Exiting...")
			return nil
		case 'u':
			if err := CheckForUpdates(); err != nil {
				logging.WarnWithComponent(logging.ComponentUpdate, "update check failed", "error", err)
			}
			continue
		}

		c, ok := store.ForKey(key)
		if !ok {
			fmt.Printf("unknown key %q, press h for help\n", key)
			continue
		}
		var normArgs []string
		if len(c.Args) > 0 {
			normArgs, err = promptArgs(store, session, c)
			if err != nil {
				fmt.Fprintf(os.Stderr, "input validation error: %v\n", err)
				continue
			}
		}
		log.Debug("command", "name", c.Name, "args", normArgs)
		if err := session.Execute(c.Name, normArgs); err != nil {
			if errors.Is(err, stdimg.ErrInvalidPalette) {
				fmt.Fprintln(os.Stderr, "palette needs at least one #RRGGBB color")
				continue
			}
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", c.Name, err)
			continue
		}
		if strings.HasPrefix(c.Name, "re") {
			fmt.Println(session.Status())
		}
	}
}
