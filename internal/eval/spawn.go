package eval

import (
	"brains/internal/cell"
	"brains/internal/diag"
	"brains/internal/runtime"
)

// spawnThread implements '&'. The Unix-fork-style convention is
// load-bearing: both parent and child continue at the same PC
// (already advanced past '&'), disambiguated only by the two adjacent
// cells one of them just wrote, so a following '[' or '(' routes each
// down a different branch.
func spawnThread(t *runtime.TCB, w *runtime.World, cfg Config) {
	t.Seg.Set(t.DP, 0)
	adj := cell.Wrap(int64(t.DP) + 1)
	t.Seg.Set(adj, 1)

	if cfg.MaxThreads > 0 && len(w.TCBs) >= cfg.MaxThreads {
		t.Seg.Set(adj, 0)
		diag.SpawnFailed("thread")
		return
	}

	child := w.NewThread(t.Proc, t.PC, adj, t.Seg, t.Procs, t.Stack, t.SP, t.Cost)
	cfg.Scheduler.Schedule(w, child)
}

// spawnProcess implements '%': same adjacent-cell signalling as '&',
// but the new thread belongs to a new PCB whose own segment is a copy
// of the parent thread's *current* memory and whose parent-alias is
// always the owning process's own segment, never a segment the parent
// thread happened to have swapped to via '~'.
func spawnProcess(t *runtime.TCB, w *runtime.World, cfg Config) {
	t.Seg.Set(t.DP, 0)
	adj := cell.Wrap(int64(t.DP) + 1)
	t.Seg.Set(adj, 1)

	if cfg.MaxProcesses > 0 && len(w.PCBs) >= cfg.MaxProcesses {
		t.Seg.Set(adj, 0)
		diag.SpawnFailed("process")
		return
	}

	child := w.NewPCB(t.Proc, t.Proc.Own)
	child.Own.CopyFrom(t.Seg)
	ct := w.NewThread(child, t.PC, adj, child.Own, t.Procs, t.Stack, t.SP, t.Cost)
	cfg.Scheduler.Schedule(w, ct)
}

// wake implements '^ n': add n to the cell (mod 256), then wake up to
// n threads parked on this exact (segment, dp), stopping as soon as a
// scan finds no match.
func wake(t *runtime.TCB, w *runtime.World, cfg Config, n int32) {
	t.Seg.Add(t.DP, byte(n))
	for i := int32(0); i < n; i++ {
		victim, ok := w.WakeOne(t.Seg, t.DP)
		if !ok {
			return
		}
		cfg.Scheduler.Schedule(w, victim)
	}
}

// swapSegment implements '~': toggle between the process's own
// segment and its parent-alias. A no-op for a primordial process,
// which has no parent-alias to swap to.
func swapSegment(t *runtime.TCB) {
	if t.Seg == t.Proc.ParentAlias {
		t.Seg = t.Proc.Own
		return
	}
	if t.Proc.ParentAlias != nil {
		t.Seg = t.Proc.ParentAlias
	}
}
