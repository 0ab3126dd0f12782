package sched

// allocSlot claims a slot: free-list head first (LIFO reuse), then the next
// never-used slot below capacity. The returned slot is zeroed so a reused
// slot cannot leak a deleted task's configuration.
func (s *Scheduler) allocSlot() (int, Err) {
	if s.freeHead != freeEnd {
		i := int(s.freeHead)
		s.freeHead = s.slots[i].nextFree()
		s.slots[i] = task{}
		s.live++
		return i, ErrNone
	}
	if s.highWater >= s.cfg.Capacity {
		return -1, ErrCapacity
	}
	i := s.highWater
	s.highWater++
	s.live++
	return i, ErrNone
}

// freeSlot deletes the task in slot i and pushes the slot onto the free
// list. Clearing the whole record drops the name, which is the deletion
// marker; the counter field is then repurposed as the free-list link.
// highWater stays put: it bounds iteration, not population.
func (s *Scheduler) freeSlot(i int) {
	s.slots[i] = task{}
	s.slots[i].setNextFree(s.freeHead)
	s.freeHead = uint32(i)
	s.live--
}
