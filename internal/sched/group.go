package sched

// Group is the set of tasks owned by one owner (a game session).
// CancelAll stops all of them in one call so none outlive the owner.
type Group struct {
	tasks []*Task
}

// Add records t as owned by the group and returns it.
func (g *Group) Add(t *Task) *Task {
	g.prune()
	g.tasks = append(g.tasks, t)
	return t
}

// CancelAll cancels every owned task.
func (g *Group) CancelAll() {
	for _, t := range g.tasks {
		t.Cancel()
	}
	g.tasks = g.tasks[:0]
}

// Len returns the number of owned tasks that are still live.
func (g *Group) Len() int {
	n := 0
	for _, t := range g.tasks {
		if !t.Cancelled() {
			n++
		}
	}
	return n
}

func (g *Group) prune() {
	kept := g.tasks[:0]
	for _, t := range g.tasks {
		if !t.Cancelled() {
			kept = append(kept, t)
		}
	}
	g.tasks = kept
}
