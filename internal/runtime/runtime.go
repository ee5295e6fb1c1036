// Package runtime holds the control-block model shared by both
// scheduling disciplines and the evaluator: processes (PCB), threads
// (TCB), and the runtime lists that track them. PCBs and TCBs are
// allocated from flat, append-only slabs and referenced by pointer;
// Go's GC keeps a parent-alias segment valid for as long as any child
// thread still points at it, which is what the original's deferred-free
// list (dpList) existed to guarantee by hand.
package runtime

import (
	"brains/internal/cell"
	"brains/internal/compile"
)

// StackSize is the depth of a thread's call stack.
const StackSize = 1024

// NumProcSlots is the size of a thread's procedure table, re-exported
// from compile since it is the same table the compiler's procedure-name
// encoding indexes into.
const NumProcSlots = compile.NumProcSlots

// NoProc marks an empty procedure-table slot.
const NoProc = -1

// TCB is a thread control block: one cooperatively-scheduled strand of
// execution within a process.
type TCB struct {
	ID   int
	Proc *PCB

	PC   int
	DP   uint32
	Seg  *cell.Segment // current segment: Proc.Own or Proc.ParentAlias

	Procs [NumProcSlots]int // instruction index per slot, or NoProc

	Stack [StackSize]int
	SP    int // push decrements from StackSize, pop increments

	Cost int // persists across dispatches until the next '=' changes it
}

// NewProcTable returns a procedure table with every slot empty.
func NewProcTable() [NumProcSlots]int {
	var procs [NumProcSlots]int
	for i := range procs {
		procs[i] = NoProc
	}
	return procs
}

// PushReturn pushes pc onto the call stack. It reports false without
// modifying the stack if the stack is already full (sp == 0); the
// caller charges the instruction's tick regardless.
func (t *TCB) PushReturn(pc int) bool {
	if t.SP == 0 {
		return false
	}
	t.SP--
	t.Stack[t.SP] = pc
	return true
}

// PopReturn pops a return address. It reports false if the stack is
// empty (sp == StackSize), which is the thread-death condition for ';'.
func (t *TCB) PopReturn() (int, bool) {
	if t.SP == StackSize {
		return 0, false
	}
	pc := t.Stack[t.SP]
	t.SP++
	return pc, true
}

// PCB is a process control block: an owned data segment, an optional
// alias to a parent process's segment, and the threads that belong to
// it.
type PCB struct {
	ID int

	Own         *cell.Segment
	ParentAlias *cell.Segment // nil for a primordial process

	Ready   []*TCB // FIFO ready list, process-fair discipline's queue
	Threads int    // live TCB count

	// Bookkeeping only: not part of the scheduling algorithms, used by
	// cascading teardown and the --dump-procs diagnostic to walk the
	// process tree.
	Parent   *PCB
	Children []*PCB
}

// Descendants returns every PCB reachable from p's Children, in
// breadth-first order.
func (p *PCB) Descendants() []*PCB {
	var out []*PCB
	queue := append([]*PCB(nil), p.Children...)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		out = append(out, d)
		queue = append(queue, d.Children...)
	}
	return out
}

// Enqueue appends t to p's ready list.
func (p *PCB) Enqueue(t *TCB) {
	p.Ready = append(p.Ready, t)
}

// Dequeue pops the head of p's ready list.
func (p *PCB) Dequeue() (*TCB, bool) {
	if len(p.Ready) == 0 {
		return nil, false
	}
	t := p.Ready[0]
	p.Ready = p.Ready[1:]
	return t, true
}

// SleepEntry is one thread parked on a down-operation, waiting for its
// cell to reach a value it never will until some '^' elsewhere signals.
type SleepEntry struct {
	Thread *TCB
	Seg    *cell.Segment
	DP     uint32
}

// World owns every PCB and TCB ever created during one program's
// execution, plus the runtime lists the schedulers and evaluator
// operate on. It is rebuilt from scratch between files: the CLI
// constructs a fresh World per source file.
type World struct {
	System *cell.Segment // shared by every primordial process

	PCBs []*PCB
	TCBs []*TCB

	PList  []*PCB // active processes
	TList  []*TCB // thread-fair ready queue
	SList  []SleepEntry
	DPList []*PCB // last-thread-died, cascading disabled: deferred teardown

	Cascade bool // tear down descendants immediately when a process dies

	nextPCBID int
	nextTCBID int
}

// NewWorld returns an empty runtime, ready for one program's PCBs and
// TCBs, with a fresh zeroed system segment. cascade selects
// cascading-descendant termination.
func NewWorld(cascade bool) *World {
	return &World{Cascade: cascade, System: &cell.Segment{}}
}

// NewPrimordialPCB allocates a process created directly by the
// compiler, one per top-level program in the source. Its "own"
// segment is the world's single shared system segment, not a private
// allocation: every primordial process's threads read and write the
// same memory, which is how two programs in one file communicate.
func (w *World) NewPrimordialPCB() *PCB {
	p := &PCB{ID: w.nextPCBID, Own: w.System}
	w.nextPCBID++
	w.PCBs = append(w.PCBs, p)
	w.PList = append(w.PList, p)
	return p
}

// NewPCB allocates a process spawned at runtime via '%': a fresh
// private segment (the caller copies the spawning thread's memory
// into it) and a parent-alias a later '~' can swap to.
func (w *World) NewPCB(parent *PCB, parentAlias *cell.Segment) *PCB {
	p := &PCB{
		ID:          w.nextPCBID,
		Own:         &cell.Segment{},
		ParentAlias: parentAlias,
		Parent:      parent,
	}
	w.nextPCBID++
	w.PCBs = append(w.PCBs, p)
	w.PList = append(w.PList, p)
	parent.Children = append(parent.Children, p)
	return p
}

// NewThread allocates a thread belonging to p. The caller places it on
// whichever ready structure the active scheduling discipline uses.
func (w *World) NewThread(p *PCB, pc int, dp uint32, seg *cell.Segment, procs [NumProcSlots]int, stack [StackSize]int, sp, cost int) *TCB {
	t := &TCB{
		ID:    w.nextTCBID,
		Proc:  p,
		PC:    pc,
		DP:    dp,
		Seg:   seg,
		Procs: procs,
		Stack: stack,
		SP:    sp,
		Cost:  cost,
	}
	w.nextTCBID++
	w.TCBs = append(w.TCBs, t)
	p.Threads++
	return t
}

// ThreadDied decrements p's live-thread count and, once it reaches
// zero, retires the process: torn down immediately and recursively
// under cascading termination, or parked on dpList so descendants'
// parent-alias references remain meaningful for diagnostics otherwise.
func (w *World) ThreadDied(p *PCB) {
	p.Threads--
	if p.Threads > 0 {
		return
	}
	if w.Cascade {
		w.teardownCascade(p)
		return
	}
	w.removeFromPList(p)
	w.DPList = append(w.DPList, p)
}

// teardownCascade kills p and every descendant: their ready-list and
// sleeping threads are purged from every runtime list, and their
// thread counts are forced to zero.
func (w *World) teardownCascade(p *PCB) {
	victims := append([]*PCB{p}, p.Descendants()...)
	dead := make(map[*PCB]bool, len(victims))
	for _, v := range victims {
		dead[v] = true
	}

	w.TList = filterThreads(w.TList, func(t *TCB) bool { return !dead[t.Proc] })
	w.SList = filterSleepers(w.SList, func(e SleepEntry) bool { return !dead[e.Thread.Proc] })

	for _, v := range victims {
		v.Ready = nil
		v.Threads = 0
		w.removeFromPList(v)
	}
}

func (w *World) removeFromPList(p *PCB) {
	w.PList = filterPCBs(w.PList, func(c *PCB) bool { return c != p })
}

func filterThreads(in []*TCB, keep func(*TCB) bool) []*TCB {
	out := in[:0]
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func filterSleepers(in []SleepEntry, keep func(SleepEntry) bool) []SleepEntry {
	out := in[:0]
	for _, e := range in {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func filterPCBs(in []*PCB, keep func(*PCB) bool) []*PCB {
	out := in[:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Sleep parks t on sList, tagged with the segment and cell index it is
// blocked on.
func (w *World) Sleep(t *TCB, seg *cell.Segment, dp uint32) {
	w.SList = append(w.SList, SleepEntry{Thread: t, Seg: seg, DP: dp})
}

// WakeOne removes and returns the first thread sleeping on (seg, dp),
// in the order it parked. It reports false if no waiter matches.
func (w *World) WakeOne(seg *cell.Segment, dp uint32) (*TCB, bool) {
	for i, e := range w.SList {
		if e.Seg == seg && e.DP == dp {
			w.SList = append(w.SList[:i], w.SList[i+1:]...)
			return e.Thread, true
		}
	}
	return nil, false
}

// Deadlocked reports whether every process's ready list is empty while
// at least one thread remains parked — no thread is runnable, but the
// program has not finished either.
func (w *World) Deadlocked() bool {
	if len(w.SList) == 0 {
		return false
	}
	return !w.anyRunnable()
}

// Terminated reports whether every process's ready list and the sleep
// list are both empty: nothing left to schedule, nothing parked.
func (w *World) Terminated() bool {
	return len(w.SList) == 0 && !w.anyRunnable()
}

func (w *World) anyRunnable() bool {
	if len(w.TList) > 0 {
		return true
	}
	for _, p := range w.PList {
		if len(p.Ready) > 0 {
			return true
		}
	}
	return false
}
