package display

import (
	"fmt"
	"os"

	"github.com/castmux/transcoder/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Magenta != "" {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` _____         _
/  __ \       | |
| /  \/ __ _ _| |_ _ __ ___  _   ___  __
| |    / _` + "`" + ` (_   _| '_ ` + "`" + ` _ \| | | \ \/ /
| \__/\ (_| || |_| | | | | | |_| |>  <
 \____/\__,_| \__|_| |_| |_|\__,_/_/\_\
`)
	if term.Magenta != "" {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
