// Package service wires the engine's leaf-first components (normalizer,
// compiler, model builder, search driver, publisher) into a single public
// entry point that accepts one solve request and streams the three-record
// output contract back to a caller, in the teacher's Service idiom: a
// functional-options constructor, a Logger threaded through every component,
// and Prometheus counters updated at each lifecycle transition.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cuju/internal/domain/constraintspec"
	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/domain/roster"
	"github.com/okian/cuju/internal/domain/teamsize"
	"github.com/okian/cuju/internal/domain/types"
	"github.com/okian/cuju/internal/engine/constraints"
	"github.com/okian/cuju/internal/engine/cpsat"
	"github.com/okian/cuju/internal/engine/modelbuilder"
	"github.com/okian/cuju/internal/engine/publish"
	"github.com/okian/cuju/internal/engine/search"
	"github.com/okian/cuju/pkg/logger"
	"github.com/okian/cuju/pkg/metrics"
)

// ConstraintRequest mirrors one entry of the input payload's "constraints"
// array (spec §6.1).
type ConstraintRequest struct {
	Attribute string  `json:"attribute"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
}

// Request mirrors the engine's input payload (spec §6.1). Participants are
// raw attribute maps; a reserved "id" key supplies the opaque identifier,
// and a participant without it is rejected as a bad request.
type Request struct {
	Participants   []map[string]any    `json:"participants"`
	Constraints    []ConstraintRequest `json:"constraints"`
	TargetTeamSize int                 `json:"target_team_size"`
	LessThanTarget bool                `json:"less_than_target"`
	MaxTimeSeconds int                 `json:"max_time"`
}

// Event carries exactly one of Progress, Complete, or Err, matching spec
// §6.2's three record kinds.
type Event struct {
	Progress *types.ProgressRecord
	Complete *types.CompleteRecord
	Err      *types.ErrorRecord
}

// Service constructs and runs solves.
type Service struct {
	defaultMaxTime time.Duration
	compileTimeout time.Duration
	dedupeSize     int
	logger         logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultMaxTime sets the solver deadline used when a request omits
// max_time.
func WithDefaultMaxTime(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultMaxTime = d
		}
	}
}

// WithCompileTimeout sets the budget for model construction (spec §5).
func WithCompileTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.compileTimeout = d
		}
	}
}

// WithDedupeSize bounds the roster's duplicate-participant-identifier guard
// (<=0, the default, means unbounded).
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		s.dedupeSize = n
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultMaxTime: 60 * time.Second,
		compileTimeout: 30 * time.Second,
		logger:         logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve validates and compiles req into a CP-SAT model, runs it to
// completion (or cancellation), and returns a channel of Events: zero or
// more Progress events in strictly increasing solution order, followed by
// exactly one Complete or Err event. The channel is closed after the
// terminal event.
func (s *Service) Solve(ctx context.Context, req Request) (<-chan Event, error) {
	runID := uuid.NewString()
	log := s.logger.Named(runID)

	built, err := s.compile(ctx, log, req)
	if err != nil {
		metrics.RecordSolveRequest("rejected")
		return nil, err
	}
	metrics.RecordSolveRequest("accepted")

	events := make(chan Event, 1)
	go s.run(ctx, log, runID, built.roster, built.builder, req.MaxTimeSeconds, events)
	return events, nil
}

// compiled holds every artifact compile produces: the validated roster (for
// the terminal record's participant attributes) and the frozen model ready
// for the search driver.
type compiled struct {
	roster  roster.Roster
	builder *modelbuilder.Builder
}

// compile performs every step up to and including model construction:
// roster/constraint validation, normalization, team-size derivation, model
// building, and constraint compilation. Normalization, model building and
// constraint compilation are bounded by compileTimeout (spec §5), since
// normalize.Build and constraints.Compile are the O(N*K*|V|) work that
// budget exists to bound; the validation steps before them run unbounded.
// Those calls take no context of their own, so
// the bound is enforced the way the teacher bounds other uncancelable work
// (worker.Pool.Stop): run them in a goroutine and race their completion
// against the deadline.
func (s *Service) compile(ctx context.Context, log logger.Logger, req Request) (*compiled, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCompileDuration(time.Since(start).Seconds())
	}()

	compileCtx, cancel := context.WithTimeout(ctx, s.compileTimeout)
	defer cancel()

	r, err := parseRoster(req.Participants)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(s.dedupeSize); err != nil {
		return nil, err
	}

	spec, err := parseSpec(req.Constraints)
	if err != nil {
		return nil, err
	}
	if req.TargetTeamSize <= 2 {
		return nil, fmt.Errorf("%w: target_team_size must be > 2", engineerr.ErrBadRequest)
	}
	if req.MaxTimeSeconds < 0 {
		return nil, fmt.Errorf("%w: max_time must be > 0", engineerr.ErrBadRequest)
	}
	if err := spec.Validate(r); err != nil {
		return nil, err
	}

	sizes, err := teamsize.Calc(len(r), req.TargetTeamSize, req.LessThanTarget)
	if err != nil {
		return nil, err
	}

	type buildResult struct {
		builder *modelbuilder.Builder
		err     error
	}
	resultCh := make(chan buildResult, 1)
	go func() {
		set, err := normalize.Build(r, spec)
		if err != nil {
			resultCh <- buildResult{err: err}
			return
		}
		b, err := modelbuilder.New(len(r), sizes)
		if err != nil {
			resultCh <- buildResult{err: err}
			return
		}
		if err := constraints.Compile(b, spec, set); err != nil {
			resultCh <- buildResult{err: err}
			return
		}
		resultCh <- buildResult{builder: b}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		log.Debug(ctx, "roster and spec compiled",
			logger.Int("participants", len(r)),
			logger.Int("teams", len(sizes)),
		)
		return &compiled{roster: r, builder: res.builder}, nil
	case <-compileCtx.Done():
		return nil, fmt.Errorf("%w", engineerr.ErrCompileTimeout)
	}
}

// run solves the already-compiled model, translating search events into the
// public Event stream. It is invoked in its own goroutine by Solve.
func (s *Service) run(ctx context.Context, log logger.Logger, runID string, r roster.Roster, b *modelbuilder.Builder, maxTime int, out chan<- Event) {
	defer close(out)

	metrics.IncActiveSolves()
	metrics.ResetSolveObjective()
	defer metrics.DecActiveSolves()

	start := time.Now()
	defer func() {
		metrics.RecordSolveDuration(time.Since(start).Seconds())
	}()

	deadline := s.defaultMaxTime
	if maxTime > 0 {
		deadline = time.Duration(maxTime) * time.Second
	}

	// The search driver publishes into pub without ever blocking on this
	// method's consumer loop (spec §5): a capacity-1 latest-wins progress
	// slot plus a non-lossy terminal slot. The relay goroutine below is the
	// only thing that ever calls PublishIncumbent/Terminal/Error, so it can
	// exit as soon as searchEvents closes without a separate done signal.
	pub := publish.New()
	driver := search.New(b, deadline)
	searchEvents := make(chan search.Event, 1)
	go driver.Run(ctx, searchEvents)
	go func() {
		for ev := range searchEvents {
			switch {
			case ev.Incumbent != nil:
				metrics.RecordSolveIncumbent(ev.Incumbent.Objective)
				pub.PublishIncumbent(*ev.Incumbent)
			case ev.Terminal != nil:
				pub.PublishTerminal(*ev.Terminal)
			case ev.Err != nil:
				pub.PublishError(ev.Err)
			}
		}
	}()

	lastDelivered := 0
	for {
		select {
		case <-pub.Signal():
		case <-ctx.Done():
			return
		}

		progress, terminal, pubErr := pub.Drain()
		if progress != nil && progress.Index > lastDelivered {
			lastDelivered = progress.Index
			rec := types.ProgressRecord{
				SolutionCount:  progress.Index,
				ObjectiveValue: progress.Objective,
				WallTime:       progress.Elapsed.Seconds(),
				NumConflicts:   0,
				Message:        fmt.Sprintf("found incumbent #%d, objective=%.0f", progress.Index, progress.Objective),
			}
			log.Info(ctx, "incumbent found", logger.String("run_id", runID), logger.Float64("objective", progress.Objective))
			select {
			case out <- Event{Progress: &rec}:
			case <-ctx.Done():
				return
			}
		}
		if terminal != nil {
			s.emitTerminal(ctx, log, runID, r, out, *terminal, lastDelivered)
			return
		}
		if pubErr != nil {
			s.emitError(ctx, log, out, pubErr)
			return
		}
	}
}

func (s *Service) emitTerminal(ctx context.Context, log logger.Logger, runID string, r roster.Roster, out chan<- Event, outcome cpsat.Outcome, solutionCount int) {
	// A cancellation that still found an incumbent is a success from the
	// caller's point of view (spec §4.4/§5): only a cancellation with no
	// incumbent at all, or a proven-infeasible/no-solution outcome, is
	// terminal-error.
	hasIncumbent := outcome.Assignment != nil
	switch {
	case outcome.Status == cpsat.StatusOptimal, outcome.Status == cpsat.StatusFeasible,
		outcome.Status == cpsat.StatusCancelled && hasIncumbent:
		metrics.RecordSolveTerminal(string(outcome.Status))
		participants := make([]types.AssignedParticipant, len(r))
		numTeams := 0
		for i, p := range r {
			team := outcome.Assignment[i]
			if team+1 > numTeams {
				numTeams = team + 1
			}
			participants[i] = types.AssignedParticipant{ID: p.ID, Attributes: p.Attributes, TeamNumber: team}
		}
		complete := types.CompleteRecord{
			Participants: participants,
			Stats: types.CompleteStats{
				SolutionCount:   solutionCount,
				WallTime:        outcome.Elapsed.Seconds(),
				NumTeams:        numTeams,
				NumParticipants: len(r),
			},
		}
		log.Info(ctx, "solve complete", logger.String("run_id", runID), logger.String("status", string(outcome.Status)))
		select {
		case out <- Event{Complete: &complete}:
		case <-ctx.Done():
		}
	default:
		var kind error
		switch outcome.Status {
		case cpsat.StatusInfeasible:
			kind = engineerr.ErrInfeasible
		case cpsat.StatusCancelled:
			kind = engineerr.ErrCancelled
		default:
			kind = engineerr.ErrNoSolution
		}
		s.emitError(ctx, log, out, kind)
	}
}

func (s *Service) emitError(ctx context.Context, log logger.Logger, out chan<- Event, err error) {
	kind := engineerr.Kind(err)
	metrics.RecordSolveTerminal(kind)
	log.Error(ctx, "solve failed", logger.Error(err), logger.String("kind", kind))
	rec := types.ErrorRecord{Kind: kind, Message: err.Error()}
	select {
	case out <- Event{Err: &rec}:
	case <-ctx.Done():
	}
}

const idKey = "id"

// parseRoster extracts an opaque identifier (the reserved "id" key) from
// each participant map, leaving the remainder as attributes.
func parseRoster(raw []map[string]any) (roster.Roster, error) {
	r := make(roster.Roster, len(raw))
	for i, p := range raw {
		idVal, ok := p[idKey]
		if !ok {
			return nil, fmt.Errorf("%w: participant %d missing %q", engineerr.ErrBadRequest, i, idKey)
		}
		id := fmt.Sprint(idVal)
		attrs := make(map[string]any, len(p)-1)
		for k, v := range p {
			if k == idKey {
				continue
			}
			attrs[k] = v
		}
		r[i] = roster.Participant{ID: id, Attributes: attrs}
	}
	return r, nil
}

func parseSpec(raw []ConstraintRequest) (constraintspec.Spec, error) {
	spec := make(constraintspec.Spec, len(raw))
	for i, c := range raw {
		spec[i] = constraintspec.Constraint{
			Attribute: c.Attribute,
			Kind:      constraintspec.Kind(c.Type),
			Weight:    c.Weight,
		}
	}
	return spec, nil
}
