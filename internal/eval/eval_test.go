package eval

import (
	"bytes"
	"testing"

	"brains/internal/compile"
	"brains/internal/runtime"
	"brains/internal/sched"
)

func runSource(t *testing.T, src string, cfg Config) (*runtime.World, *compile.Output, Result) {
	t.Helper()
	out, err := compile.Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	w := runtime.NewWorld(false)
	Boot(w, out, cfg)
	res := Run(w, out.Gimem, cfg)
	return w, out, res
}

func baseConfig(out, in *bytes.Buffer) Config {
	return Config{
		Scheduler: &sched.ProcessFair{},
		Quantum:   0, // unbounded: run to completion each turn
		Input:     in,
		Output:    out,
	}
}

func TestHelloByteScenario(t *testing.T) {
	// ++++++++[>++++++++<-]>+. : cell 1 becomes 8*8+1 = 65 ('A').
	var outBuf, inBuf bytes.Buffer
	_, _, res := runSource(t, "++++++++[>++++++++<-]>+.", baseConfig(&outBuf, &inBuf))
	if res.Deadlock {
		t.Fatal("simple arithmetic program should not deadlock")
	}
	if outBuf.Len() != 1 || outBuf.Bytes()[0] != 65 {
		t.Fatalf("output = %v, want [65]", outBuf.Bytes())
	}
}

func TestTwoThreadsDoubleOutputUnderThreadFair(t *testing.T) {
	// '+' then '&' forks a thread; both continue to '<' '.'. Two bytes out.
	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	cfg.Scheduler = sched.ThreadFair{}
	cfg.Quantum = 10
	_, _, res := runSource(t, "+>+&<.", cfg)
	if res.Deadlock {
		t.Fatal("spawn-thread program should not deadlock")
	}
	if outBuf.Len() != 2 {
		t.Fatalf("output len = %d, want 2 (one byte per thread)", outBuf.Len())
	}
}

func TestSleepOnZeroCellDeadlocks(t *testing.T) {
	// '_' with n=1 against a zero cell with no '^' anywhere to wake it.
	var outBuf, inBuf bytes.Buffer
	_, _, res := runSource(t, "_", baseConfig(&outBuf, &inBuf))
	if !res.Deadlock {
		t.Fatal("a lone sleep on an always-insufficient cell should deadlock, not crash")
	}
}

func TestSatisfiedSleepSucceeds(t *testing.T) {
	// '+' raises the cell to 1, then '_' (threshold 1, default imm 1)
	// succeeds immediately without sleeping.
	var outBuf, inBuf bytes.Buffer
	_, _, res := runSource(t, "+_", baseConfig(&outBuf, &inBuf))
	if res.Deadlock {
		t.Fatal("a satisfied sleep should not deadlock")
	}
}

func TestCostPersistsAcrossDispatches(t *testing.T) {
	// "===" sets cost to 3 (run-length of '='). That '=' instruction
	// itself must be charged at the thread's OLD cost (1, the default),
	// not the new one it just installed.
	out, err := compile.Compile([]byte("===+++"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	th := w.NewThread(p, out.Programs[0].Start, 0, w.System, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)

	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	cfg.Quantum = 1 // nonzero so runThread honors the explicit tick budget below, not "run forever"

	// Quantum of exactly 1: only the '=' instruction should run, charged
	// at the thread's old cost of 1, leaving Cost set to 3 for next time.
	reason := runThread(th, out.Gimem, w, cfg, 1)
	if reason != exitNormal {
		t.Fatalf("exit reason = %v, want exitNormal", reason)
	}
	if th.Cost != 3 {
		t.Fatalf("Cost after '===' should be 3, got %d", th.Cost)
	}
	if th.PC != 1 {
		t.Fatalf("PC after one charged tick should be 1 (just past '='), got %d", th.PC)
	}
}

func TestTailCallDoesNotGrowStack(t *testing.T) {
	// ":A+A;A" defines A to add 1 and tail-call itself forever, then
	// invokes it once from the top level. The one non-tail outer call
	// pushes a single return address; every subsequent self-recursion is
	// a tail call and must not push another, however many ticks run.
	out, err := compile.Compile([]byte(":A+A;A"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	th := w.NewThread(p, out.Programs[0].Start, 0, w.System, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)

	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	cfg.Quantum = 1 // nonzero so each runThread call below honors its explicit tick budget

	runThread(th, out.Gimem, w, cfg, 50)
	spAfterFirst := th.SP
	if spAfterFirst != runtime.StackSize-1 {
		t.Fatalf("SP after the one non-tail call = %d, want %d", spAfterFirst, runtime.StackSize-1)
	}

	runThread(th, out.Gimem, w, cfg, 500)
	if th.SP != spAfterFirst {
		t.Fatalf("further tail-recursive ticks grew the stack: SP went from %d to %d", spAfterFirst, th.SP)
	}
}

func TestEmptyProcSlotIsNoOp(t *testing.T) {
	// A call to an undefined procedure slot ('A' with no ':A...;') is a
	// free no-op: it must not crash or move the program counter oddly.
	out, err := compile.Compile([]byte("+A+"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	th := w.NewThread(p, out.Programs[0].Start, 0, w.System, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)

	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	runThread(th, out.Gimem, w, cfg, 10)

	if th.Seg.Get(0) != 2 {
		t.Fatalf("cell = %d, want 2 (two '+' executed, 'A' a no-op)", th.Seg.Get(0))
	}
}

func TestSpawnProcessCopiesMemoryNotAliasesIt(t *testing.T) {
	// "+++" sets cell 0 to 3, then '>' moves off it before '%' spawns,
	// since spawn zeroes the cell under the data pointer at spawn time.
	src := "+++>%"
	out, err := compile.Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	th := w.NewThread(p, out.Programs[0].Start, 0, w.System, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)

	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	runThread(th, out.Gimem, w, cfg, 10)

	if len(w.PCBs) != 2 {
		t.Fatalf("len(PCBs) = %d, want 2 after one spawnProcess", len(w.PCBs))
	}
	child := w.PCBs[1]
	if child.Own == p.Own {
		t.Fatal("spawned process must not alias the parent's segment")
	}
	if child.Own.Get(0) != 3 {
		t.Fatalf("spawned process's copied memory at cell 0 = %d, want 3", child.Own.Get(0))
	}
	p.Own.Set(0, 99)
	if child.Own.Get(0) == 99 {
		t.Fatal("mutating the parent's segment leaked into the spawned process's copy")
	}
}

func TestMaxThreadsCapsSpawnFailure(t *testing.T) {
	out, err := compile.Compile([]byte("&"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	th := w.NewThread(p, out.Programs[0].Start, 0, w.System, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)

	var outBuf, inBuf bytes.Buffer
	cfg := baseConfig(&outBuf, &inBuf)
	cfg.MaxThreads = 1 // the boot thread itself already occupies the one slot

	before := len(w.TCBs)
	runThread(th, out.Gimem, w, cfg, 10)
	if len(w.TCBs) != before {
		t.Fatalf("spawn should have failed under the cap: TCBs went from %d to %d", before, len(w.TCBs))
	}
	if th.Seg.Get(1) != 0 {
		t.Fatalf("adjacent cell should be reset to 0 on spawn failure, got %d", th.Seg.Get(1))
	}
}

func TestWakeOneDoesNotWakePastMissingSleeper(t *testing.T) {
	var outBuf, inBuf bytes.Buffer
	w := runtime.NewWorld(false)
	p := w.NewPrimordialPCB()
	cfg := baseConfig(&outBuf, &inBuf)
	cfg.Scheduler = sched.ThreadFair{}

	onlySleeper := w.NewThread(p, 0, 0, p.Own, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)
	w.Sleep(onlySleeper, p.Own, 0)

	waker := w.NewThread(p, 0, 0, p.Own, runtime.NewProcTable(), [runtime.StackSize]int{}, runtime.StackSize, 1)
	wake(waker, w, cfg, 3) // ask for 3 wakes, only 1 sleeper exists

	if len(w.SList) != 0 {
		t.Fatalf("the one sleeper should have been woken, SList has %d entries", len(w.SList))
	}
}
