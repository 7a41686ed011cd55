package session

// waitingSet is an insertion-ordered set of connection ids. It is not safe for
// concurrent use; the Manager guards it.
type waitingSet struct {
	order []string
	index map[string]struct{}
}

func newWaitingSet() *waitingSet {
	return &waitingSet{index: make(map[string]struct{})}
}

// add inserts id at the back. It returns false if id was already waiting.
func (w *waitingSet) add(id string) bool {
	if _, ok := w.index[id]; ok {
		return false
	}
	w.index[id] = struct{}{}
	w.order = append(w.order, id)
	return true
}

// remove deletes id, reporting whether it was present.
func (w *waitingSet) remove(id string) bool {
	if _, ok := w.index[id]; !ok {
		return false
	}
	delete(w.index, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// popOldest removes and returns the longest-waiting id.
func (w *waitingSet) popOldest() (string, bool) {
	if len(w.order) == 0 {
		return "", false
	}
	id := w.order[0]
	w.order[0] = ""
	w.order = w.order[1:]
	delete(w.index, id)
	return id, true
}

func (w *waitingSet) contains(id string) bool {
	_, ok := w.index[id]
	return ok
}

func (w *waitingSet) size() int { return len(w.order) }

// ids returns a copy of the waiting ids, oldest first.
func (w *waitingSet) ids() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}
