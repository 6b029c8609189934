package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq int    `json:"seq"`
	Op  string `json:"op"`
	ID  string `json:"id,omitempty"`
	OK  bool   `json:"ok"`
	// Result is the id of the record a successful create or update returned.
	Result string `json:"result,omitempty"`
	// Error is the controller's error message after the step.
	Error string `json:"error,omitempty"`
	// Entries are the projection's ids after the step.
	Entries []string `json:"entries"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, numbering it.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	if ev.Entries == nil {
		ev.Entries = []string{}
	}
	r.Trace = append(r.Trace, ev)
}
