package domain

// FileOutcome records what happened to one non-keeper file
type FileOutcome struct {
	// Path is the file's path before the action
	Path string

	// Destination is set for moved files
	Destination string

	// Action is the action that was attempted
	Action Action

	// Err is non-nil if the action failed
	Err error
}

// Succeeded returns true if the action completed
func (o FileOutcome) Succeeded() bool {
	return o.Err == nil
}

// DispositionResult summarizes one executor run
type DispositionResult struct {
	Groups   int
	Kept     int
	Deleted  int
	Moved    int
	Reported int
	Failed   int

	// Outcomes lists every non-keeper in processing order
	Outcomes []FileOutcome
}

// Errors returns the failed outcomes
func (r *DispositionResult) Errors() []FileOutcome {
	var failed []FileOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Record adds an outcome and updates the counters
func (r *DispositionResult) Record(o FileOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Err != nil {
		r.Failed++
		return
	}
	switch o.Action {
	case ActionDelete:
		r.Deleted++
	case ActionMove:
		r.Moved++
	default:
		r.Reported++
	}
}
