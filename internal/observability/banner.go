package observability

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

func PrintBanner() {
	banner := `
   _____ __       _     __
  / ___// /______(_)___/ /__
  \__ \/ __/ ___/ / __  / _ \
 ___/ / /_/ /  / / /_/ /  __/
/____/\__/_/  /_/\__,_/\___/

   >> THE PLANNER-EXECUTOR ENGINE <<
`

	width := termWidth()
	lines := strings.Split(banner, "\n")

	for _, l := range lines {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}
