package prune

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"osuprune/internal/collection"
	"osuprune/internal/fs"
)

// State is the session's position in the deletion workflow. Nothing is
// ever removed from disk before the session has passed through
// [StateConfirmed].
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateReviewed  State = "reviewed"
	StateConfirmed State = "confirmed"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var (
	// ErrBadState is returned when an operation is invoked outside the
	// state that allows it.
	ErrBadState = errors.New("operation not allowed in this state")

	// ErrUnknownCandidate is returned when a path does not match any
	// staged candidate.
	ErrUnknownCandidate = errors.New("no such candidate")
)

// Result is the outcome of executing one confirmed candidate.
type Result struct {
	Path   string
	Kind   Kind
	Status Status
	Cause  string
}

// Session drives one scan-and-delete pass over a library.
//
// Lifecycle: NewSession → BeginScan (StateReviewed) → optional Skip
// calls → Confirm (StateCompleted). A scan error moves the session to
// StateFailed; it cannot be reused afterwards.
//
// Mapsets and difficulties are immutable once parsed; the candidate
// list is the only shared mutable state and is guarded by one mutex,
// so scanning may fan out across workers safely.
type Session struct {
	fsys fs.FS
	src  Source
	crit Criteria
	db   *collection.Database
	jobs int

	mu         sync.Mutex
	state      State
	candidates []*Candidate
	stats      Stats
}

// Stats summarizes a completed scan.
type Stats struct {
	Mapsets       int `json:"mapsets"`
	Difficulties  int `json:"difficulties"`
	ParseFailures int `json:"parse_failures"`
}

// NewSession assembles a session. db may be nil unless the criteria
// require collection membership; jobs below 1 means serial scanning.
func NewSession(fsys fs.FS, src Source, crit Criteria, db *collection.Database, jobs int) *Session {
	if jobs < 1 {
		jobs = 1
	}

	return &Session{
		fsys:  fsys,
		src:   src,
		crit:  crit,
		db:    db,
		jobs:  jobs,
		state: StateIdle,
	}
}

// ResumeSession rebuilds a reviewed session from a staged report, so
// the confirm phase can run in a later process than the scan.
func ResumeSession(fsys fs.FS, r *Report) *Session {
	return &Session{
		fsys:       fsys,
		crit:       r.Criteria,
		jobs:       1,
		state:      StateReviewed,
		candidates: r.Candidates,
		stats:      r.Stats,
	}
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Stats returns the scan summary.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// BeginScan enumerates the library, evaluates every mapset against the
// criteria, and stages deletion candidates. On success the session is
// in StateReviewed and the sorted candidate list is returned.
func (s *Session) BeginScan(ctx context.Context) ([]*Candidate, error) {
	if err := s.transition(StateIdle, StateScanning); err != nil {
		return nil, err
	}

	if s.crit.RequireCollection && s.db == nil {
		s.fail()

		return nil, errors.New("collection filtering requested without a collection database")
	}

	entries, err := s.src.Entries()
	if err != nil {
		s.fail()

		return nil, err
	}

	if err := s.scanEntries(ctx, entries); err != nil {
		s.fail()

		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sort.Slice(s.candidates, func(i, j int) bool {
		return s.candidates[i].Path < s.candidates[j].Path
	})

	s.state = StateReviewed

	return snapshot(s.candidates), nil
}

// scanEntries fans the per-mapset work out over the configured number
// of workers. Parallelism is a throughput choice only; results are
// sorted afterwards so the candidate list is deterministic either way.
func (s *Session) scanEntries(ctx context.Context, entries []Entry) error {
	work := make(chan Entry)

	var wg sync.WaitGroup

	for i := 0; i < s.jobs; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for e := range work {
				s.scanOne(e)
			}
		}()
	}

	var ctxErr error

feed:
	for _, e := range entries {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()

			break feed
		case work <- e:
		}
	}

	close(work)
	wg.Wait()

	return ctxErr
}

func (s *Session) scanOne(e Entry) {
	m := scanEntry(s.fsys, e, s.crit.BPMTolerance)
	cands := Evaluate(m, s.crit, s.db)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Mapsets++
	s.stats.Difficulties += len(m.Diffs)
	s.stats.ParseFailures += len(m.Failures)
	s.candidates = append(s.candidates, cands...)
}

// Candidates returns a snapshot of the staged candidates.
func (s *Session) Candidates() []*Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.candidates)
}

// Skip marks the candidate with the given path as skipped so Confirm
// passes it over. Only valid during review.
func (s *Session) Skip(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewed {
		return fmt.Errorf("skip in state %s: %w", s.state, ErrBadState)
	}

	for _, c := range s.candidates {
		if c.Path == path {
			c.Status = StatusSkipped

			return nil
		}
	}

	return fmt.Errorf("%s: %w", path, ErrUnknownCandidate)
}

// Confirm executes the staged deletions. selected limits execution to
// those paths; nil means every still-pending candidate. Deletions run
// serially; one failure never blocks the rest, and a context cancel
// stops between candidates, leaving completed deletions final.
func (s *Session) Confirm(ctx context.Context, selected []string) ([]Result, error) {
	if err := s.transition(StateReviewed, StateConfirmed); err != nil {
		return nil, err
	}

	var only map[string]bool
	if selected != nil {
		only = make(map[string]bool, len(selected))
		for _, p := range selected {
			only[p] = true
		}
	}

	s.mu.Lock()

	var confirmed []*Candidate

	for _, c := range s.candidates {
		if c.Status != StatusPending {
			continue
		}

		if only != nil && !only[c.Path] {
			continue
		}

		c.Status = StatusConfirmed

		confirmed = append(confirmed, c)
	}
	s.mu.Unlock()

	results := make([]Result, 0, len(confirmed))

	var ctxErr error

	for _, c := range confirmed {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}

		s.execute(c)
		results = append(results, Result{Path: c.Path, Kind: c.Kind, Status: c.Status, Cause: c.Cause})
	}

	s.mu.Lock()
	s.state = StateCompleted
	s.mu.Unlock()

	return results, ctxErr
}

// execute removes one candidate from disk. Each candidate is atomic:
// it either ends up deleted or failed with a cause; there is no retry.
func (s *Session) execute(c *Candidate) {
	set := func(status Status, cause string) {
		s.mu.Lock()
		defer s.mu.Unlock()

		c.Status = status
		c.Cause = cause
	}

	// RemoveAll reports success for a missing path; a mapset that
	// vanished between scan and confirm must surface as a failure
	// instead of a silent no-op.
	if _, err := s.fsys.Stat(c.Path); err != nil {
		if os.IsNotExist(err) {
			set(StatusFailed, "path not found")
		} else {
			set(StatusFailed, err.Error())
		}

		return
	}

	var err error
	if c.Kind == KindMapset {
		err = s.fsys.RemoveAll(c.Path)
	} else {
		err = s.fsys.Remove(c.Path)
	}

	if err != nil {
		set(StatusFailed, err.Error())

		return
	}

	set(StatusDeleted, "")
}

func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return fmt.Errorf("%s -> %s while %s: %w", from, to, s.state, ErrBadState)
	}

	s.state = to

	return nil
}

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateFailed
}

// snapshot copies candidates so callers cannot mutate session state.
func snapshot(cands []*Candidate) []*Candidate {
	out := make([]*Candidate, len(cands))

	for i, c := range cands {
		cc := *c
		cc.Reasons = append([]string(nil), c.Reasons...)
		out[i] = &cc
	}

	return out
}
