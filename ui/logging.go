package ui

import (
	"github.com/pterm/pterm"
)

// SetDebugEnabled toggles debug output, which carries the RX/TX frame dumps.
func SetDebugEnabled(enabled bool) {
	pterm.PrintDebugMessages = enabled
}

func Println(format string, a ...interface{}) {
	pterm.Printfln(format, a...)
}

func Debug(format string, a ...interface{}) {
	pterm.Debug.Printfln(format, a...)
}

func Info(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

func Warning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

func Error(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}
