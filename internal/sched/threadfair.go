package sched

import "brains/internal/runtime"

// ThreadFair gives every live thread an equal share of scheduling
// turns, independent of which process owns it: a single global FIFO
// of runnable TCBs.
type ThreadFair struct{}

func (ThreadFair) GetNext(w *runtime.World) (*runtime.TCB, bool) {
	if len(w.TList) == 0 {
		return nil, false
	}
	t := w.TList[0]
	w.TList = w.TList[1:]
	return t, true
}

func (ThreadFair) Schedule(w *runtime.World, t *runtime.TCB) {
	w.TList = append(w.TList, t)
}
