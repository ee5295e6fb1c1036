// Package diag is the runtime's only channel to stderr: compile
// errors, non-fatal runtime advisories, and the opt-in debug dumps.
// Nothing here ever writes to stdout, which is reserved for the
// program's own "." output.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"brains/internal/runtime"
)

var logger = log.New(os.Stderr, "brains: ", 0)

var colorOn bool

// EnableColor turns on ANSI colouring for CompileError, gated by the
// caller on an actual TTY check (golang.org/x/term), not assumed.
func EnableColor(on bool) { colorOn = on }

// CompileError reports a compile failure for a source file. The file
// is not executed.
func CompileError(file string, err error) {
	if colorOn {
		logger.Printf("\x1b[31m%s: %v\x1b[0m", file, err)
		return
	}
	logger.Printf("%s: %v", file, err)
}

// StackFull reports a call-stack-full push; the call is skipped but
// still charged its tick.
func StackFull(t *runtime.TCB) {
	logger.Printf("thread %d: call stack full, push skipped", t.ID)
}

// SpawnFailed reports a failed thread or process spawn.
func SpawnFailed(kind string) {
	logger.Printf("%s spawn failed: allocation exhausted", kind)
}

// Dump renders the '#' debug snapshot for one thread: PC, DP, the
// ticks remaining in its current quantum, and the next 16 cells from
// its data pointer.
func Dump(w io.Writer, t *runtime.TCB, ticksLeft int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PC", "DP", "ticks left", "next 16 cells"})
	window := t.Seg.Window(t.DP, 16)
	table.Append([]string{
		fmt.Sprintf("%d", t.PC),
		fmt.Sprintf("%d", t.DP),
		fmt.Sprintf("%d", ticksLeft),
		fmt.Sprintf("%v", window),
	})
	table.Render()
}

// Trace dumps a thread's full procedure table and call stack for
// --trace mode.
func Trace(w io.Writer, t *runtime.TCB) {
	fmt.Fprintln(w, spew.Sdump(t))
}

// ProcessTable renders one row per tracked process for --dump-procs:
// its id, live-thread count, and parent, if any.
func ProcessTable(w io.Writer, pcbs []*runtime.PCB) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PCB", "threads", "parent"})
	for _, p := range pcbs {
		parent := "-"
		if p.Parent != nil {
			parent = fmt.Sprintf("%d", p.Parent.ID)
		}
		table.Append([]string{
			fmt.Sprintf("%d", p.ID),
			fmt.Sprintf("%d", p.Threads),
			parent,
		})
	}
	table.Render()
}
