package eval

import (
	"brains/internal/cell"
	"brains/internal/compile"
	"brains/internal/diag"
	"brains/internal/runtime"
)

// exitReason is why runThread stopped running its thread.
type exitReason int

const (
	exitNormal exitReason = iota // quantum exhausted, or yield
	exitDie
	exitSleep
)

// runThread dispatches t's instructions until it exhausts quanta
// ticks (unless cfg.Quantum == 0, meaning unbounded) or hits a
// suspension point: yield, death, or a park on an insufficient cell.
func runThread(t *runtime.TCB, gimem []compile.Word, w *runtime.World, cfg Config, quanta int) exitReason {
	forever := cfg.Quantum == 0
	ticks := quanta

	for {
		if !forever && ticks <= 0 {
			return exitNormal
		}
		if t.PC < 0 || t.PC >= len(gimem) {
			return exitDie
		}

		word := gimem[t.PC]
		t.PC++
		op := word.Op()
		imm := word.Imm()
		cost := t.Cost

		switch op {
		case compile.OpAdd:
			t.Seg.Add(t.DP, byte(imm))
		case compile.OpSub:
			t.Seg.Sub(t.DP, byte(imm))
		case compile.OpLeft:
			t.DP = cell.Wrap(int64(t.DP) - int64(imm))
		case compile.OpRight:
			t.DP = cell.Wrap(int64(t.DP) + int64(imm))
		case compile.OpOut:
			writeOut(t, cfg, imm)
		case compile.OpIn:
			readIn(t, cfg, imm)

		case compile.OpLoopFwd:
			if t.Seg.Get(t.DP) == 0 {
				t.PC += int(imm)
			}
		case compile.OpLoopBack:
			if t.Seg.Get(t.DP) != 0 {
				t.PC -= int(imm)
			}
		case compile.OpUntilFwd:
			if t.Seg.Get(t.DP) != 0 {
				t.PC += int(imm)
			}
		case compile.OpUntilBack:
			if t.Seg.Get(t.DP) == 0 {
				t.PC -= int(imm)
			}

		case compile.OpIf:
			if t.Seg.Get(t.DP) == 0 {
				t.PC += int(imm)
			}
		case compile.OpElse:
			t.PC += int(imm)
		case compile.OpEndIf:
			// no-op

		case compile.OpProcDef:
			if t.PC < len(gimem) {
				if slot, ok := compile.ProcSlot(gimem[t.PC].Op()); ok {
					t.Procs[slot] = t.PC + 1
				}
			}
			t.PC += int(imm)

		case compile.OpReturn:
			pc, ok := t.PopReturn()
			if !ok {
				return exitDie
			}
			t.PC = pc

		case compile.OpSpawnThread:
			spawnThread(t, w, cfg)
		case compile.OpSpawnProcess:
			spawnProcess(t, w, cfg)

		case compile.OpWake:
			wake(t, w, cfg, imm)
		case compile.OpSleep:
			if int(t.Seg.Get(t.DP)) < int(imm) {
				t.PC--
				w.Sleep(t, t.Seg, t.DP)
				return exitSleep
			}
			t.Seg.Sub(t.DP, byte(imm))

		case compile.OpYield:
			return exitNormal
		case compile.OpSeparator:
			return exitDie

		case compile.OpCost:
			t.Cost = int(imm)

		case compile.OpZero:
			t.Seg.Set(t.DP, 0)

		case compile.OpSwap:
			swapSegment(t)

		case compile.OpDebug:
			diag.Dump(cfg.diagWriter(), t, ticks)
			if cfg.Trace {
				diag.Trace(cfg.diagWriter(), t)
			}
			cost = 0

		default:
			cost = callProc(t, gimem, op)
		}

		ticks -= cost
	}
}

// callProc resolves a procedure-name byte against t's table: an empty
// slot is a free no-op, a tail position (the next word is a return)
// jumps without pushing, and anything else pushes the current PC
// before jumping, unless the call stack is already full.
func callProc(t *runtime.TCB, gimem []compile.Word, ch byte) int {
	slot, ok := compile.ProcSlot(ch)
	if !ok {
		return t.Cost
	}
	target := t.Procs[slot]
	if target == runtime.NoProc {
		return 0
	}

	tailCall := t.PC < len(gimem) && gimem[t.PC].Op() == compile.OpReturn
	if tailCall {
		t.PC = target
		return t.Cost
	}

	if !t.PushReturn(t.PC) {
		diag.StackFull(t)
		return t.Cost
	}
	t.PC = target
	return t.Cost
}

func writeOut(t *runtime.TCB, cfg Config, n int32) {
	v := t.Seg.Get(t.DP)
	buf := [1]byte{v}
	for i := int32(0); i < n; i++ {
		cfg.Output.Write(buf[:])
	}
}

func readIn(t *runtime.TCB, cfg Config, n int32) {
	var buf [1]byte
	for i := int32(0); i < n; i++ {
		read, _ := cfg.Input.Read(buf[:])
		if read > 0 {
			t.Seg.Set(t.DP, buf[0])
		}
	}
}
