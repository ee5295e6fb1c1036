// Command brains compiles and runs one or more source files through
// the tape/cell interpreter in internal/eval.
package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"brains/internal/compile"
	"brains/internal/diag"
	"brains/internal/eval"
	"brains/internal/runtime"
	"brains/internal/sched"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: brains [-q N | -Q N] [--cascade] [--trace] [--dump-procs] file [file...]")
	fmt.Fprintln(os.Stderr, "  -q N   process-fair scheduler, quantum N (0 = unbounded, <0 = random per turn)")
	fmt.Fprintln(os.Stderr, "  -Q N   thread-fair scheduler, quantum N")
	fmt.Fprintln(os.Stderr, "  no option: process-fair scheduler, quantum 10")
}

func main() {
	fs := pflag.NewFlagSet("brains", pflag.ContinueOnError)
	fs.Usage = func() {}

	var qVal, capQVal int
	fs.IntVarP(&qVal, "q", "q", 10, "process-fair scheduler quantum")
	fs.IntVarP(&capQVal, "Q", "Q", 10, "thread-fair scheduler quantum")
	cascade := fs.Bool("cascade", false, "tear down descendants immediately when a process's last thread dies")
	traceFlag := fs.Bool("trace", false, "verbose spew dump on every '#'")
	dumpProcs := fs.Bool("dump-procs", false, "print the final PCB table after each file runs")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "brains:", err)
		os.Exit(1)
	}

	files := fs.Args()
	if len(files) == 0 {
		usage()
		os.Exit(0)
	}

	diag.EnableColor(term.IsTerminal(int(os.Stdout.Fd())))

	threadFair := fs.Changed("Q")
	quantum := qVal
	if threadFair {
		quantum = capQVal
	}

	for _, file := range files {
		runFile(file, threadFair, quantum, *cascade, *traceFlag, *dumpProcs)
	}
}

func runFile(file string, threadFair bool, quantum int, cascade, trace, dumpProcs bool) {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brains: %s: %v\n", file, err)
		return
	}

	out, err := compile.Compile(src)
	if err != nil {
		diag.CompileError(file, err)
		return
	}

	var discipline sched.Scheduler
	if threadFair {
		discipline = sched.ThreadFair{}
	} else {
		discipline = &sched.ProcessFair{}
	}

	w := runtime.NewWorld(cascade)

	var input io.Reader = os.Stdin
	if out.Stdin != nil {
		input = bytes.NewReader(out.Stdin)
	}

	cfg := eval.Config{
		Scheduler: discipline,
		Quantum:   quantum,
		Input:     input,
		Output:    os.Stdout,
		Diag:      os.Stderr,
		Trace:     trace,
		Rand:      rand.New(rand.NewPCG(0, uint64(len(src)))),
	}

	eval.Boot(w, out, cfg)
	eval.Run(w, out.Gimem, cfg)

	if dumpProcs {
		diag.ProcessTable(os.Stderr, w.PCBs)
	}
}
