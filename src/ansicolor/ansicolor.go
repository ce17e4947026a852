package ansicolor

import (
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
)

// Escape codes used by the pretty log writer. They are plain variables so
// that they can be blanked out when the output is not a terminal.

var Reset = "\033[0m"
var Bold = "\033[1m"
var Faint = "\033[2m"

var Red = "\033[31m"
var Green = "\033[32m"
var Yellow = "\033[33m"
var Blue = "\033[34m"
var Gray = "\033[37m"

var BgRed = "\033[41m"
var BgYellow = "\033[43m"
var BgBlue = "\033[44m"

func init() {
	if runtime.GOOS == "windows" || !isatty.IsTerminal(os.Stderr.Fd()) {
		Disable()
	}
}

// Disable blanks every escape code. Log output written afterward is plain text.
func Disable() {
	Reset, Bold, Faint = "", "", ""
	Red, Green, Yellow, Blue, Gray = "", "", "", "", ""
	BgRed, BgYellow, BgBlue = "", "", ""
}
