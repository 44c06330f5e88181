// Package importer drives the statement import flow: upload a file, review
// and adjust the parsed drafts, then commit the selection to the ledger.
package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

// State is the import session's phase.
type State string

const (
	StateUpload  State = "upload"
	StateReview  State = "review"
	StateSuccess State = "success"
)

// DefaultResetDelay is how long the success confirmation stays before the
// session returns to the upload phase.
const DefaultResetDelay = 3 * time.Second

// Parser turns a raw statement file into draft transactions.
type Parser interface {
	Parse(data []byte, filename string) ([]core.DraftTransaction, error)
}

// Classifier assigns buckets to drafts, creating suggested buckets as a
// side effect.
type Classifier interface {
	Classify(ctx context.Context, drafts []core.DraftTransaction, existing []core.Bucket) ([]core.DraftTransaction, error)
}

// TransactionCreator commits one draft to the ledger.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
}

// BucketLister provides the known buckets for classification context.
type BucketLister interface {
	ListBuckets(ctx context.Context, year int, month time.Month) ([]core.Bucket, error)
}

// Notifier observes successful commits. Used to fan events out to the
// sync queue; a nil notifier is fine.
type Notifier interface {
	TransactionCommitted(ctx context.Context, t core.Transaction)
}

// DraftEdit is a partial update to one draft. Nil fields stay untouched.
type DraftEdit struct {
	Date   *string
	Note   *string
	Bucket *string
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	State    State
	Drafts   []core.DraftTransaction
	Selected map[string]bool
}

// CommitResult reports the per-draft outcome of a commit.
type CommitResult struct {
	Committed []core.Transaction
	Failed    map[string]error
}

var (
	ErrNotInUpload  = fmt.Errorf("session is not accepting uploads")
	ErrNotInReview  = fmt.Errorf("session is not in review")
	ErrUnknownDraft = fmt.Errorf("unknown draft id")
	ErrNoSelection  = fmt.Errorf("no drafts selected")
)

// Session is a single-user import flow. All methods are safe for
// concurrent use.
type Session struct {
	parser     Parser
	classifier Classifier
	store      TransactionCreator
	buckets    BucketLister
	notifier   Notifier
	logger     *applog.Logger
	resetDelay time.Duration
	now        func() time.Time

	mu         sync.Mutex
	state      State
	drafts     []core.DraftTransaction
	selected   map[string]bool
	resetTimer *time.Timer
}

type Option func(*Session)

// WithResetDelay overrides how long the success phase lasts.
func WithResetDelay(d time.Duration) Option {
	return func(s *Session) { s.resetDelay = d }
}

// WithNotifier registers a commit observer.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func NewSession(parser Parser, classifier Classifier, store TransactionCreator, buckets BucketLister, logger *applog.Logger, opts ...Option) *Session {
	s := &Session{
		parser:     parser,
		classifier: classifier,
		store:      store,
		buckets:    buckets,
		logger:     logger.WithComponent(applog.ComponentImporter),
		resetDelay: DefaultResetDelay,
		now:        time.Now,
		state:      StateUpload,
		selected:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload parses and classifies a statement file and moves the session to
// review. A parse failure leaves the session in upload. A classification
// failure is not fatal: the drafts arrive unbucketed and the user assigns
// buckets by hand.
func (s *Session) Upload(ctx context.Context, data []byte, filename string) error {
	s.mu.Lock()
	if s.state != StateUpload {
		s.mu.Unlock()
		return ErrNotInUpload
	}
	s.mu.Unlock()

	drafts, err := s.parser.Parse(data, filename)
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}

	now := s.now()
	existing, err := s.buckets.ListBuckets(ctx, now.Year(), now.Month())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list buckets for classification", applog.FieldError, err)
		existing = nil
	}

	classified, err := s.classifier.Classify(ctx, drafts, existing)
	if err != nil {
		s.logger.WarnContext(ctx, "classification failed, continuing unclassified",
			applog.FieldError, err,
			applog.FieldBatchSize, len(drafts))
		classified = drafts
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUpload {
		return ErrNotInUpload
	}
	s.drafts = classified
	s.selected = make(map[string]bool, len(classified))
	for _, d := range classified {
		s.selected[d.ID] = true
	}
	s.state = StateReview

	s.logger.InfoContext(ctx, "statement uploaded",
		"filename", filename,
		applog.FieldBatchSize, len(classified))
	return nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:    s.state,
		Drafts:   make([]core.DraftTransaction, len(s.drafts)),
		Selected: make(map[string]bool, len(s.selected)),
	}
	copy(snap.Drafts, s.drafts)
	for id, sel := range s.selected {
		snap.Selected[id] = sel
	}
	return snap
}

// UpdateDraft applies a partial edit to one draft during review.
func (s *Session) UpdateDraft(id string, edit DraftEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrNotInReview
	}

	for i := range s.drafts {
		if s.drafts[i].ID != id {
			continue
		}
		if edit.Date != nil {
			s.drafts[i].Date = *edit.Date
		}
		if edit.Note != nil {
			s.drafts[i].Note = *edit.Note
		}
		if edit.Bucket != nil {
			s.drafts[i].Bucket = strings.TrimSpace(*edit.Bucket)
		}
		return nil
	}
	return ErrUnknownDraft
}

// ToggleSelect flips one draft's selection.
func (s *Session) ToggleSelect(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrNotInReview
	}
	if _, ok := s.selected[id]; !ok {
		return ErrUnknownDraft
	}
	s.selected[id] = !s.selected[id]
	return nil
}

// SelectAll marks every draft for commit.
func (s *Session) SelectAll() error {
	return s.setAll(true)
}

// SelectNone clears the selection.
func (s *Session) SelectNone() error {
	return s.setAll(false)
}

func (s *Session) setAll(sel bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrNotInReview
	}
	for id := range s.selected {
		s.selected[id] = sel
	}
	return nil
}

// Reclassify reruns classification over the selected drafts only.
// Unselected drafts keep their buckets, including manual edits.
func (s *Session) Reclassify(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReview {
		s.mu.Unlock()
		return ErrNotInReview
	}
	var subset []core.DraftTransaction
	for _, d := range s.drafts {
		if s.selected[d.ID] {
			subset = append(subset, d)
		}
	}
	s.mu.Unlock()

	if len(subset) == 0 {
		return ErrNoSelection
	}

	now := s.now()
	existing, err := s.buckets.ListBuckets(ctx, now.Year(), now.Month())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list buckets for reclassification", applog.FieldError, err)
		existing = nil
	}

	classified, err := s.classifier.Classify(ctx, subset, existing)
	if err != nil {
		return fmt.Errorf("reclassify: %w", err)
	}

	byID := make(map[string]core.DraftTransaction, len(classified))
	for _, d := range classified {
		byID[d.ID] = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return ErrNotInReview
	}
	for i := range s.drafts {
		if d, ok := byID[s.drafts[i].ID]; ok {
			s.drafts[i] = d
		}
	}
	return nil
}

// Commit writes every selected draft to the ledger concurrently. Each
// draft is attempted regardless of sibling failures. When all succeed the
// session shows success and auto-resets after the configured delay; when
// some fail the session stays in review with only the failed drafts left.
func (s *Session) Commit(ctx context.Context) (CommitResult, error) {
	s.mu.Lock()
	if s.state != StateReview {
		s.mu.Unlock()
		return CommitResult{}, ErrNotInReview
	}
	var picked []core.DraftTransaction
	for _, d := range s.drafts {
		if s.selected[d.ID] {
			picked = append(picked, d)
		}
	}
	s.mu.Unlock()

	if len(picked) == 0 {
		return CommitResult{}, ErrNoSelection
	}

	type outcome struct {
		draftID string
		tx      core.Transaction
		err     error
	}
	outcomes := make([]outcome, len(picked))

	var g errgroup.Group
	for i, draft := range picked {
		g.Go(func() error {
			tx, err := s.store.CreateTransaction(ctx, draftToTransaction(draft, s.now()))
			outcomes[i] = outcome{draftID: draft.ID, tx: tx, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := CommitResult{Failed: map[string]error{}}
	committed := make(map[string]bool, len(picked))
	for _, o := range outcomes {
		if o.err != nil {
			result.Failed[o.draftID] = o.err
			s.logger.ErrorContext(ctx, "failed to commit draft",
				applog.FieldDraftID, o.draftID,
				applog.FieldError, o.err)
			continue
		}
		committed[o.draftID] = true
		result.Committed = append(result.Committed, o.tx)
		if s.notifier != nil {
			s.notifier.TransactionCommitted(ctx, o.tx)
		}
	}
	sort.Slice(result.Committed, func(i, j int) bool {
		return result.Committed[i].ID < result.Committed[j].ID
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(result.Failed) == 0 {
		s.state = StateSuccess
		s.drafts = nil
		s.selected = map[string]bool{}
		s.scheduleResetLocked()
	} else {
		remaining := s.drafts[:0]
		for _, d := range s.drafts {
			if !committed[d.ID] {
				remaining = append(remaining, d)
			} else {
				delete(s.selected, d.ID)
			}
		}
		s.drafts = remaining
	}

	s.logger.InfoContext(ctx, "commit finished",
		"committed", len(result.Committed),
		"failed", len(result.Failed))
	return result, nil
}

// Reset returns the session to the upload phase immediately.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.state = StateUpload
	s.drafts = nil
	s.selected = map[string]bool{}
}

func (s *Session) scheduleResetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(s.resetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateSuccess {
			s.resetLocked()
		}
	})
}

// draftToTransaction finalizes a draft: blank buckets fall back to the
// default bucket and unparseable dates to the commit time.
func draftToTransaction(d core.DraftTransaction, now time.Time) core.Transaction {
	bucket := strings.TrimSpace(d.Bucket)
	if bucket == "" {
		bucket = core.UncategorizedBucket
	}

	date := now
	if d.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, d.Date); err == nil {
			date = parsed
		} else if parsed, err := time.Parse("2006-01-02", d.Date); err == nil {
			date = parsed
		}
	}

	return core.Transaction{
		Amount: d.Amount,
		Bucket: bucket,
		Note:   d.Note,
		Date:   date,
		Type:   core.TypeForAmount(d.Amount),
	}
}
