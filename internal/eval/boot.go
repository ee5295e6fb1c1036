package eval

import (
	"brains/internal/compile"
	"brains/internal/runtime"
)

// Boot creates one primordial process per top-level program the
// compiler found, each with a single initial thread positioned at
// that program's first instruction, and hands every initial thread to
// cfg.Scheduler. Call it once per file, against a freshly constructed
// World, before Run.
func Boot(w *runtime.World, out *compile.Output, cfg Config) {
	var stack [runtime.StackSize]int
	for _, prog := range out.Programs {
		p := w.NewPrimordialPCB()
		t := w.NewThread(p, prog.Start, 0, w.System, runtime.NewProcTable(), stack, runtime.StackSize, 1)
		cfg.Scheduler.Schedule(w, t)
	}
}
