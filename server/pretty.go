package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"bridge-lin/server/corpus"
	"bridge-lin/server/engine"
	"bridge-lin/server/lin"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func initColor() {
	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")
}

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s %s %s\n", dim("──"), bold(title), dim("──"))
}

// kindTag colours an error kind by how recoverable the file usually is.
func kindTag(k lin.Kind) string {
	switch k {
	case lin.KindFormat:
		return bad(k.String())
	case lin.KindIncomplete:
		return warn(k.String())
	default:
		return cyan(k.String())
	}
}

func dealLine(d *engine.Deal) string {
	if d.PassedOut() {
		return dim(d.String())
	}
	return d.String()
}

// printResult writes one line per file for the decode and watch commands.
func printResult(w io.Writer, r corpus.Result) {
	switch {
	case r.OK():
		fmt.Fprintf(w, "%s %s  %s\n", good("ok "), r.File, dealLine(r.Deal))
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "    %s %s\n", warn("warn"), wn)
		}
	case r.Kind != lin.KindNone:
		fmt.Fprintf(w, "%s %s  %s %s\n", bad("err"), r.File, kindTag(r.Kind), dim(r.Err.Error()))
	default:
		fmt.Fprintf(w, "%s %s  %s\n", bad("err"), r.File, r.Err)
	}
}
