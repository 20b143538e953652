package util

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
)

// LogFatalBug stops the program with the given message. Use it only for states that can never be reached by correct
// code, e.g. a broken graph invariant right after a committed edit.
func LogFatalBug(format string, args ...interface{}) {
	sigolo.Fatalb(1, "%s - This is a bug in osmedit, please report it", fmt.Sprintf(format, args...))
}
