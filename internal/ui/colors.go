package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/quantmind-br/tytm/internal/core"
)

// Palette used by every tytm command.
var (
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)

	Highlight = color.New(color.FgHiCyan, color.Bold)
	Muted     = color.New(color.Faint)
	Bold      = color.New(color.Bold)

	CheckMark = color.GreenString("✓")
	CrossMark = color.RedString("✗")
	Arrow     = color.CyanString("→")
	Bullet    = color.HiBlackString("•")

	actionColors = map[core.Action]*color.Color{
		core.ActionInstall:   color.New(color.FgGreen),
		core.ActionAddSub:    color.New(color.FgHiGreen),
		core.ActionRemoveSub: color.New(color.FgYellow),
		core.ActionUninstall: color.New(color.FgRed),
		core.ActionUpdate:    color.New(color.FgBlue),
	}

	kindColors = map[core.SourceKind]*color.Color{
		core.SourceZip: color.New(color.FgMagenta),
		core.SourceGit: color.New(color.FgCyan),
	}
)

var (
	outMu  sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects message output. Nil restores the process streams.
func SetOutput(out, errOut io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

// Stdout returns the writer regular messages go to.
func Stdout() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return stdout
}

// Stderr returns the writer warnings and errors go to.
func Stderr() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return stderr
}

// InitColors disables color when NO_COLOR is set or the terminal is dumb.
func InitColors() {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(Stdout(), "%s %s\n", CheckMark, fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(Stderr(), "%s Error: %s\n", CrossMark, fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(Stderr(), "Warning: %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(Stdout(), "%s %s\n", Arrow, fmt.Sprintf(format, args...))
}

// PrintKeyValue prints "key: value" with the key in bold.
func PrintKeyValue(key, value string) {
	w := Stdout()
	Bold.Fprintf(w, "%s: ", key)
	fmt.Fprintln(w, value)
}

// PrintHeader prints a section header
func PrintHeader(text string) {
	w := Stdout()
	fmt.Fprintln(w)
	Bold.Fprintln(w, text)
	Muted.Fprintln(w, "────────────────────────────────────────")
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	w := Stdout()
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", Bullet, item)
	}
}

// ColorizeAction returns the history action name in its color.
func ColorizeAction(a core.Action) string {
	if c, ok := actionColors[a]; ok {
		return c.Sprint(string(a))
	}
	return string(a)
}

// ColorizeSourceKind returns the source kind name in its color.
func ColorizeSourceKind(k core.SourceKind) string {
	if c, ok := kindColors[k]; ok {
		return c.Sprint(string(k))
	}
	return string(k)
}

// DisableColors disables all color output
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output
func EnableColors() {
	color.NoColor = false
}

// AreColorsEnabled returns whether colors are currently enabled
func AreColorsEnabled() bool {
	return !color.NoColor
}
