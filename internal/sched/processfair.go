package sched

import "brains/internal/runtime"

// ProcessFair gives every live process an equal share of scheduling
// turns, which each process then subdivides equally among its own
// threads. It holds a cursor on the PCB that was handed the previous
// turn: that process re-enters the rotation only on the following call
// and only if it still has live threads, since a process whose last
// thread just died has already been retired by runtime.World.
type ProcessFair struct {
	cursor *runtime.PCB
}

func (s *ProcessFair) GetNext(w *runtime.World) (*runtime.TCB, bool) {
	if s.cursor != nil {
		prev := s.cursor
		s.cursor = nil
		if prev.Threads > 0 {
			w.PList = append(w.PList, prev)
		}
	}

	for i := 0; i < len(w.PList); i++ {
		p := w.PList[0]
		w.PList = w.PList[1:]

		t, ok := p.Dequeue()
		if !ok {
			w.PList = append(w.PList, p)
			continue
		}
		s.cursor = p
		return t, true
	}
	return nil, false
}

func (ProcessFair) Schedule(w *runtime.World, t *runtime.TCB) {
	t.Proc.Enqueue(t)
}
