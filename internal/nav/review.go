package nav

import "eoreview/internal/model"

// DefaultReviewBatch is how many review increments accumulate before the
// progress map is written.
const DefaultReviewBatch = 3

// Reviews counts item views. Each item is counted at most once per session and
// progress is persisted after every batch increments.
type Reviews struct {
	batch    int
	progress map[string]int
	seen     model.IDSet
	pending  int
	total    int
	save     func(map[string]int) error
}

func NewReviews(progress map[string]int, batch int, save func(map[string]int) error) *Reviews {
	if progress == nil {
		progress = map[string]int{}
	}
	if batch < 1 {
		batch = DefaultReviewBatch
	}
	return &Reviews{batch: batch, progress: progress, seen: model.IDSet{}, save: save}
}

// Record counts a view of id. It reports whether the count changed and
// returns any persistence error.
func (r *Reviews) Record(id string) (bool, error) {
	if id == "" || r.seen.Has(id) {
		return false, nil
	}
	r.seen.Add(id)
	r.progress[id]++
	r.total++
	r.pending++
	if r.total%r.batch != 0 {
		return true, nil
	}
	return true, r.Flush()
}

// Flush writes progress if there are unsaved increments.
func (r *Reviews) Flush() error {
	if r.pending == 0 || r.save == nil {
		return nil
	}
	if err := r.save(r.progress); err != nil {
		return err
	}
	r.pending = 0
	return nil
}

func (r *Reviews) Count(id string) int { return r.progress[id] }

// Progress returns the live progress map. Callers must not modify it.
func (r *Reviews) Progress() map[string]int { return r.progress }

// Pending returns the number of increments not yet persisted.
func (r *Reviews) Pending() int { return r.pending }
