// Package store is the dashboard's view state: the single owner of the
// projects, bids, traffic series and progress currently on screen.
//
// Every fetch kind carries a generation number. Starting a fetch bumps the
// generation and cancels the in-flight fetch of the same kind; a response
// whose generation is no longer current is dropped, error included. Each
// public operation clears Snapshot.Error when it starts and sets it when it
// fails.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/bidwise/bidwise/internal/models"
)

// Backend is the set of REST operations the store drives. *client.Client
// implements it.
type Backend interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, name, newStatus string) error
	ListBids(ctx context.Context, projectName string) ([]models.Bid, error)
	TrafficData(ctx context.Context) ([]models.TrafficPoint, error)
	ProjectProgress(ctx context.Context, projectName string) (*models.ProjectProgress, error)
}

// Snapshot is a copy of the view state at one point in time.
type Snapshot struct {
	Projects []models.Project        `json:"projects"`
	Selected string                  `json:"selected"`
	Bids     []models.Bid            `json:"bids"`
	Traffic  []models.TrafficPoint   `json:"traffic"`
	Progress *models.ProjectProgress `json:"progress"`
	Loading  bool                    `json:"loading"`
	Error    string                  `json:"error,omitempty"`
}

// SelectedProject returns the selected project, if it is in the list.
func (s Snapshot) SelectedProject() (models.Project, bool) {
	for _, p := range s.Projects {
		if p.Name == s.Selected {
			return p, true
		}
	}
	return models.Project{}, false
}

type fetchKind int

const (
	kindProjects fetchKind = iota
	kindBids
	kindTraffic
	kindProgress
	numKinds
)

// Store owns the view state. It is safe for concurrent use; backend calls
// run outside the lock.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	state     Snapshot
	gens      [numKinds]uint64
	cancels   [numKinds]context.CancelFunc
	inflight  int
	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates a Store over backend. A nil logger uses slog.Default().
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:   backend,
		logger:    logger,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.state
	snap.Projects = append([]models.Project(nil), s.state.Projects...)
	snap.Bids = append([]models.Bid(nil), s.state.Bids...)
	snap.Traffic = append([]models.TrafficPoint(nil), s.state.Traffic...)
	if s.state.Progress != nil {
		p := *s.state.Progress
		p.Milestones = append([]models.Milestone(nil), s.state.Progress.Milestones...)
		snap.Progress = &p
	}
	return snap
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. The returned func unregisters it. fn must not block.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// LoadInitial fetches the project list, selects the first project (which
// fetches its bids), then fetches the traffic series and the first project's
// progress. The three fetches run in that order; the first failure stops the
// sequence and leaves already-committed state in place. A bid fetch failure
// is reported but does not stop the sequence. An unnamed first project still
// gets the traffic series but no selection or progress.
func (s *Store) LoadInitial(ctx context.Context) error {
	s.begin()
	err := s.loadInitial(ctx)
	s.finish("load", err, fallbackInitial)
	return err
}

func (s *Store) loadInitial(ctx context.Context) error {
	projects, err := s.initialProjects(ctx)
	if err != nil {
		return err
	}

	first := projects[0].Name
	if first == "" {
		// Traffic does not depend on the selection.
		if err := s.loadTraffic(ctx); err != nil {
			return err
		}
		return ErrUnnamedProject
	}
	// Bid failures surface through SelectProject's own error handling.
	_ = s.SelectProject(ctx, first)

	if err := s.loadTraffic(ctx); err != nil {
		return err
	}

	_, err = run(ctx, s, kindProgress,
		func(ctx context.Context) (*models.ProjectProgress, error) {
			return s.backend.ProjectProgress(ctx, first)
		},
		func(st *Snapshot, p *models.ProjectProgress) {
			if st.Selected == first {
				st.Progress = p
			}
		},
	)
	return err
}

// initialProjects fetches the project list for LoadInitial. When another
// project fetch supersedes it, the list that fetch committed is used instead;
// if nothing has been committed yet the fetch is issued once more.
func (s *Store) initialProjects(ctx context.Context) ([]models.Project, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var fetched []models.Project
		stale, err := run(ctx, s, kindProjects,
			func(ctx context.Context) ([]models.Project, error) {
				ps, err := s.backend.ListProjects(ctx)
				if err == nil && len(ps) == 0 {
					return nil, ErrNoProjects
				}
				return ps, err
			},
			func(st *Snapshot, ps []models.Project) {
				st.Projects = ps
				fetched = ps
			},
		)
		if err != nil {
			return nil, err
		}
		if !stale {
			return fetched, nil
		}

		s.mu.Lock()
		committed := append([]models.Project(nil), s.state.Projects...)
		s.mu.Unlock()
		if len(committed) > 0 {
			return committed, nil
		}
	}
	return nil, ErrNoProjects
}

func (s *Store) loadTraffic(ctx context.Context) error {
	_, err := run(ctx, s, kindTraffic, s.backend.TrafficData,
		func(st *Snapshot, pts []models.TrafficPoint) { st.Traffic = pts },
	)
	return err
}

// SelectProject makes name the active project and fetches its bids. An
// empty name clears the selection, bids and progress without any request.
// Selecting the current project again re-fetches its bids.
func (s *Store) SelectProject(ctx context.Context, name string) error {
	s.mu.Lock()
	if name != s.state.Selected {
		s.state.Bids = nil
	}
	s.state.Selected = name
	if s.state.Progress != nil && s.state.Progress.Project != name {
		s.state.Progress = nil
	}
	if name == "" {
		s.supersedeLocked(kindBids)
		s.supersedeLocked(kindProgress)
	}
	s.mu.Unlock()
	s.notify()

	if name == "" {
		return nil
	}

	s.begin()
	_, err := run(ctx, s, kindBids,
		func(ctx context.Context) ([]models.Bid, error) {
			return s.backend.ListBids(ctx, name)
		},
		func(st *Snapshot, bids []models.Bid) {
			if bids == nil {
				bids = []models.Bid{}
			}
			st.Bids = bids
		},
	)
	s.finish("select project", err, fallbackBids)
	return err
}

// CreateProject validates and submits a new project, then re-fetches the
// project list. The new project is never added locally; on failure the
// current list is left untouched.
func (s *Store) CreateProject(ctx context.Context, p models.NewProject) error {
	s.begin()
	p.Name = strings.TrimSpace(p.Name)
	p.Status = strings.TrimSpace(p.Status)

	var err error
	switch {
	case p.Name == "":
		err = &ValidationError{Field: "project name", Problem: "is required"}
	case p.Status == "":
		err = &ValidationError{Field: "project status", Problem: "is required"}
	case p.Schools < 0:
		err = &ValidationError{Field: "school count", Problem: "must not be negative"}
	}
	if err != nil {
		s.finish("create project", err, fallbackCreate)
		return err
	}

	if _, err := s.backend.CreateProject(ctx, p); err != nil {
		s.finish("create project", err, fallbackCreate)
		return err
	}
	err = s.resync(ctx)
	s.finish("create project", err, fallbackProjects)
	return err
}

// ChangeProjectStatus submits a status update, then re-fetches the project list.
func (s *Store) ChangeProjectStatus(ctx context.Context, name, newStatus string) error {
	s.begin()
	name = strings.TrimSpace(name)
	newStatus = strings.TrimSpace(newStatus)

	var err error
	switch {
	case name == "":
		err = &ValidationError{Field: "project name", Problem: "is required"}
	case newStatus == "":
		err = &ValidationError{Field: "new status", Problem: "is required"}
	}
	if err != nil {
		s.finish("change status", err, fallbackStatus)
		return err
	}

	if err := s.backend.UpdateProjectStatus(ctx, name, newStatus); err != nil {
		s.finish("change status", err, fallbackStatus)
		return err
	}
	err = s.resync(ctx)
	s.finish("change status", err, fallbackProjects)
	return err
}

// RefreshProgress re-fetches progress for the active project.
func (s *Store) RefreshProgress(ctx context.Context) error {
	name := s.Snapshot().Selected
	if name == "" {
		return nil
	}

	s.begin()
	_, err := run(ctx, s, kindProgress,
		func(ctx context.Context) (*models.ProjectProgress, error) {
			return s.backend.ProjectProgress(ctx, name)
		},
		func(st *Snapshot, p *models.ProjectProgress) {
			if st.Selected == name {
				st.Progress = p
			}
		},
	)
	s.finish("refresh progress", err, fallbackProgress)
	return err
}

// RefreshTraffic re-fetches the traffic series.
func (s *Store) RefreshTraffic(ctx context.Context) error {
	s.begin()
	err := s.loadTraffic(ctx)
	s.finish("refresh traffic", err, fallbackTraffic)
	return err
}

// RefreshProjects re-fetches the project list without touching the selection.
func (s *Store) RefreshProjects(ctx context.Context) error {
	s.begin()
	err := s.resync(ctx)
	s.finish("refresh projects", err, fallbackProjects)
	return err
}

func (s *Store) resync(ctx context.Context) error {
	_, err := run(ctx, s, kindProjects, s.backend.ListProjects,
		func(st *Snapshot, ps []models.Project) { st.Projects = ps },
	)
	return err
}

// begin marks an operation in flight and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()
}

// finish ends an operation, recording err as the user-facing message.
func (s *Store) finish(op string, err error, fallback string) {
	s.mu.Lock()
	s.inflight--
	s.state.Loading = s.inflight > 0
	if err != nil {
		s.state.Error = Describe(err, fallback)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("dashboard operation failed", "op", op, "error", err)
	}
	s.notify()
}

// supersedeLocked invalidates the in-flight fetch of kind k.
func (s *Store) supersedeLocked(k fetchKind) uint64 {
	if cancel := s.cancels[k]; cancel != nil {
		cancel()
	}
	s.gens[k]++
	return s.gens[k]
}

// run performs call as the newest fetch of kind k and applies its result if
// no newer fetch of that kind started meanwhile. A superseded fetch reports
// stale and never an error.
func run[T any](ctx context.Context, s *Store, k fetchKind, call func(context.Context) (T, error), apply func(*Snapshot, T)) (stale bool, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	gen := s.supersedeLocked(k)
	s.cancels[k] = cancel
	s.mu.Unlock()

	v, err := call(ctx)

	s.mu.Lock()
	if s.gens[k] != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded response", "kind", int(k), "generation", gen)
		return true, nil
	}
	s.cancels[k] = nil
	if err == nil {
		apply(&s.state, v)
	}
	s.mu.Unlock()

	if err == nil {
		s.notify()
	}
	return false, err
}
