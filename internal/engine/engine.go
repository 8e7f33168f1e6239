package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/ledger/internal/ledger"
	"github.com/roach88/ledger/internal/store"
)

// DefaultPath is the store path of the ledger document.
const DefaultPath = "ledger.json"

// State is a loaded ledger snapshot and the revision it was read at.
// States are values: the engine never modifies one after returning it.
type State struct {
	Document *ledger.Document
	Revision string
}

// Result describes an applied mutation.
type Result struct {
	Kind     ledger.MutationKind
	Warnings []ledger.Warning
	// Attempts is the number of writes it took; >1 means conflicts were retried.
	Attempts int
}

// Engine runs the fetch / validate / compare-and-swap protocol against a store.
type Engine struct {
	store       store.DocumentStore
	path        string
	clock       Clock
	maxAttempts int
	logger      *slog.Logger
	metrics     *Metrics
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithPath sets the store path of the ledger document (default DefaultPath).
func WithPath(path string) Option {
	return func(e *Engine) {
		e.path = path
	}
}

// WithClock sets the clock that dates versions and test results.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMaxAttempts sets the write attempts per mutation.
//
// Default: 3 (DefaultMaxAttempts). The default retries a CAS conflict after a
// re-fetch and re-validation, unlike the strict protocol where a conflict is
// fatal to the operation. Use WithMaxAttempts(1) for the strict behavior: the
// first conflict is returned to the caller.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// WithLogger sets the logger warnings and retries are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the collectors mutations are recorded in.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over s.
func New(s store.DocumentStore, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		path:        DefaultPath,
		clock:       SystemClock{},
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the store path of the ledger document.
func (e *Engine) Path() string {
	return e.path
}

// Init creates an empty ledger document if none exists.
// Returns true if this call created it.
func (e *Engine) Init(ctx context.Context) (bool, error) {
	_, err := e.store.Read(ctx, e.path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, readError(e.path, err)
	}

	content, err := ledger.Encode(ledger.NewDocument())
	if err != nil {
		return false, err
	}
	ctx = store.WithCommitMessage(ctx, "ledger: initialize")
	if _, err := e.store.Write(ctx, e.path, content, ""); err != nil {
		if errors.Is(err, store.ErrRevisionConflict) {
			// Another writer created it first.
			return false, nil
		}
		return false, writeError(e.path, err)
	}
	e.logger.Info("ledger document created", "path", e.path)
	return true, nil
}

// Fetch reads and decodes the ledger document.
//
// Fails with NotFound if the document does not exist, StoreUnreachable if
// the read fails, or CorruptDocument if the content is not a ledger.
func (e *Engine) Fetch(ctx context.Context) (*State, error) {
	blob, err := e.store.Read(ctx, e.path)
	if err != nil {
		return nil, readError(e.path, err)
	}
	doc, err := ledger.Decode(blob.Content)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("ledger fetched",
		"path", e.path,
		"revision", blob.Revision,
		"components", len(doc.Components),
		"versions", len(doc.Versions),
		"setups", len(doc.Setups),
		"tests", len(doc.Tests),
	)
	return &State{Document: doc, Revision: blob.Revision}, nil
}

// Apply validates m against st and writes the resulting document.
//
// Validation errors are returned without touching the store. A CAS conflict
// triggers a re-fetch and a fresh validation, up to the attempt limit; when
// the limit is reached the Conflict error wraps *AttemptsExceededError.
// Store failures and failed post-write verification are returned at once.
//
// st is never modified. On success the returned State holds the written
// document and its new revision.
func (e *Engine) Apply(ctx context.Context, st *State, m ledger.Mutation) (*State, *Result, error) {
	if st == nil || st.Document == nil {
		return nil, nil, &ledger.Error{Code: ledger.ErrCodeNotLoaded, Message: "no ledger document loaded; fetch first"}
	}
	if m == nil {
		return nil, nil, ledger.NewValidationError("no mutation given")
	}
	kind := m.Kind()

	budget := NewAttemptBudget(e.maxAttempts)
	current := st
	var conflict *ledger.Error
	for budget.Check() == nil {
		change, warnings, err := ledger.Validate(current.Document, m, e.clock.Now().UnixMilli())
		if err != nil {
			e.metrics.observeMutation(kind, OutcomeRejected)
			return nil, nil, err
		}

		next, err := e.write(ctx, current, change)
		if err == nil {
			e.metrics.observeMutation(kind, OutcomeApplied)
			e.metrics.observeWarnings(warnings)
			for _, w := range warnings {
				e.logger.Warn(w.Message, "code", w.Code, "kind", kind)
			}
			return next, &Result{Kind: kind, Warnings: warnings, Attempts: budget.Current()}, nil
		}

		if !errors.As(err, &conflict) || conflict.Code != ledger.ErrCodeConflict {
			e.metrics.observeMutation(kind, OutcomeFailed)
			return nil, nil, err
		}
		e.metrics.observeConflict()
		if budget.Remaining() == 0 {
			break
		}

		e.logger.Info("ledger write conflicted, refetching",
			"kind", kind,
			"attempt", budget.Current(),
			"revision", current.Revision,
		)
		current, err = e.Fetch(ctx)
		if err != nil {
			e.metrics.observeMutation(kind, OutcomeFailed)
			return nil, nil, err
		}
	}

	e.metrics.observeMutation(kind, OutcomeConflict)
	conflict.Err = errors.Join(conflict.Err, &AttemptsExceededError{Attempts: budget.Current(), Limit: budget.maxAttempts})
	return nil, nil, conflict
}

// write appends change to st's document, CAS-writes it and verifies the
// store reports the new revision.
func (e *Engine) write(ctx context.Context, st *State, change *ledger.Change) (*State, error) {
	doc := change.Apply(st.Document)
	content, err := ledger.Encode(doc)
	if err != nil {
		return nil, err
	}

	ctx = store.WithCommitMessage(ctx, commitMessage(change))
	rev, err := e.store.Write(ctx, e.path, content, st.Revision)
	if err != nil {
		return nil, writeError(e.path, err)
	}

	// Independent confirmation that the write is what the store now serves.
	blob, err := e.store.Read(ctx, e.path)
	if err != nil {
		return nil, readError(e.path, err)
	}
	if blob.Revision != rev {
		e.logger.Error("post-write revision check failed",
			"path", e.path,
			"written_revision", rev,
			"observed_revision", blob.Revision,
		)
		return nil, NewVerifyError(e.path, rev, blob.Revision)
	}

	return &State{Document: doc, Revision: rev}, nil
}

// commitMessage describes a change for stores that keep history.
func commitMessage(c *ledger.Change) string {
	switch c.Kind {
	case ledger.KindComponent:
		return fmt.Sprintf("ledger: add component %s", c.Components[0].ID)
	case ledger.KindSetup:
		s := c.Setups[0]
		return fmt.Sprintf("ledger: add setup %s (%s)", s.ID, strings.Join(s.ComponentIDs, ", "))
	case ledger.KindVersion:
		v := c.Versions[0]
		return fmt.Sprintf("ledger: add version %s@%s", v.ComponentID, v.Tag)
	case ledger.KindTest:
		t := c.Tests[0]
		ids := make([]string, 0, len(t.ComponentVersionMap))
		for id, tag := range t.ComponentVersionMap {
			ids = append(ids, id+"@"+tag)
		}
		sort.Strings(ids)
		return fmt.Sprintf("ledger: add test result %s %s (%s)", t.SetupID, t.Status, strings.Join(ids, ", "))
	}
	return "ledger: update"
}

// AddComponent registers a component.
func (e *Engine) AddComponent(ctx context.Context, st *State, c ledger.AddComponent) (*State, *Result, error) {
	return e.Apply(ctx, st, c)
}

// AddSetup registers a setup over existing components.
func (e *Engine) AddSetup(ctx context.Context, st *State, s ledger.AddSetup) (*State, *Result, error) {
	return e.Apply(ctx, st, s)
}

// AddVersion records a component version, creating the component if needed.
func (e *Engine) AddVersion(ctx context.Context, st *State, v ledger.AddVersion) (*State, *Result, error) {
	return e.Apply(ctx, st, v)
}

// AddTest records a test result.
func (e *Engine) AddTest(ctx context.Context, st *State, t ledger.AddTest) (*State, *Result, error) {
	return e.Apply(ctx, st, t)
}
