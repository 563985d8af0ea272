package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kingrea/albaform/internal/daterange"
	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/imagecodec"
	"github.com/kingrea/albaform/internal/logbook"
	"github.com/kingrea/albaform/internal/logging"
	"github.com/kingrea/albaform/internal/storage"
	"github.com/kingrea/albaform/internal/wizard"
)

// Deps wires the Synchronizer and Loader to their collaborators. Logger,
// Journal and OnPublish are optional.
type Deps struct {
	Form    *form.Controller
	Range   *daterange.Controller
	Store   *wizard.Store
	Storage storage.Storage
	Key     string
	Logger  *logging.Logger
	Journal *logbook.Logbook

	// OnPublish is called from the publishing goroutine after every
	// publication settles, applied or superseded.
	OnPublish func(Result)
}

func (d Deps) key() string {
	if d.Key == "" {
		return DefaultKey
	}
	return d.Key
}

// ErrClosed is returned by PublishSync once the Synchronizer is closed.
var ErrClosed = errors.New("draft: synchronizer closed")

// Result describes one settled publication.
type Result struct {
	Token   uint64
	Applied bool
	Draft   StepOneDraft
	// Skipped lists images that could not be encoded and were left out.
	Skipped []*imagecodec.CodecError
	// PersistErr is the swallowed durable-write failure, if any.
	PersistErr error
}

// Synchronizer keeps the shared store and the durable snapshot in step with
// the live form. Publications are last-write-wins by token: each one takes
// the next token when scheduled and commits only if no later one was issued.
type Synchronizer struct {
	deps Deps

	ctx     context.Context
	issued  atomic.Uint64
	holds   atomic.Int32
	commit  sync.Mutex
	pending sync.WaitGroup

	mu     sync.Mutex
	unsubs []form.Unsubscribe
	closed bool
}

// NewSynchronizer creates an idle synchronizer; call Start to subscribe.
func NewSynchronizer(deps Deps) *Synchronizer {
	return &Synchronizer{deps: deps, ctx: context.Background()}
}

// Start subscribes to form, range and image-list changes. ctx bounds every
// background publication. Close undoes the subscriptions.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	s.unsubs = append(s.unsubs,
		s.deps.Form.Watch(s.onFieldChange),
		s.deps.Range.OnChange(s.onRangeChange),
		s.deps.Store.SubscribeImages(s.onImagesChange),
	)
}

// Close unsubscribes and waits for in-flight publications and writes, so
// nothing scheduled before unmount is lost. Nothing is scheduled after Close,
// including the publication of a Hold released late.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.closed = true
	s.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	s.pending.Wait()
}

// Wait blocks until every scheduled publication and write has settled.
func (s *Synchronizer) Wait() {
	s.pending.Wait()
}

// Hold suspends durable writes and publications while the form is being
// hydrated. The returned release resumes them and publishes once.
func (s *Synchronizer) Hold() (release func()) {
	s.holds.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if s.holds.Add(-1) == 0 {
				s.Publish(s.context())
			}
		})
	}
}

func (s *Synchronizer) held() bool {
	return s.holds.Load() > 0
}

func (s *Synchronizer) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Project derives the step-one draft from the form, taking the dates from
// the range controller, which may be a tick ahead of the form's fields.
// TempImages is left empty.
func (s *Synchronizer) Project() StepOneDraft {
	values := s.deps.Form.Values()
	r := s.deps.Range.Range()
	return StepOneDraft{
		Title:                values[form.FieldTitle],
		Description:          values[form.FieldDescription],
		RecruitmentStartDate: r.Start(),
		RecruitmentEndDate:   r.End(),
	}
}

func (s *Synchronizer) onFieldChange(ch form.Change) {
	if !isTracked(ch.Name) {
		return
	}
	if !form.IsBlank(ch.Value) {
		s.deps.Store.MarkStepActive(wizard.StepOne)
	}
	s.mirror()
}

func (s *Synchronizer) onRangeChange(daterange.Range) {
	s.reapply()
	s.Publish(s.context())
}

func (s *Synchronizer) onImagesChange([]imagecodec.Image) {
	s.Publish(s.context())
}

// reapply writes the projection back into the form so the calendar's dates
// win over any stale copy in the form fields.
func (s *Synchronizer) reapply() {
	projected := s.Project()
	values := make(map[string]string, len(form.StepOneFields))
	for _, name := range form.StepOneFields {
		values[name] = projected.Field(name)
	}
	s.deps.Form.SetValues(values)
}

// mirror copies the projection into the shared store, keeping the images
// of the last committed publication, and schedules a durable write.
func (s *Synchronizer) mirror() {
	projected := s.Project()
	s.deps.Store.UpdateStepDraft(wizard.StepOne, func(current any, ok bool) any {
		if prev, isDraft := current.(StepOneDraft); ok && isDraft {
			projected.TempImages = prev.TempImages
		}
		return projected
	})
	if s.held() {
		return
	}
	s.goTracked(func(ctx context.Context) { s.flush(ctx) })
}

// Publish schedules a publication on a background goroutine and returns
// its token. While held or after Close, nothing is scheduled and 0 is
// returned.
func (s *Synchronizer) Publish(ctx context.Context) uint64 {
	if s.held() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	token := s.issued.Add(1)
	payload := s.Project()
	images := s.deps.Store.CurrentImageList()
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		res := s.run(ctx, token, payload, images)
		if s.deps.OnPublish != nil {
			s.deps.OnPublish(res)
		}
	}()
	return token
}

// PublishSync runs a publication on the calling goroutine, superseding any
// publication still encoding. The error is non-nil when the Synchronizer is
// closed or ctx ends before the images are encoded.
func (s *Synchronizer) PublishSync(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{}, ErrClosed
	}
	token := s.issued.Add(1)
	s.pending.Add(1)
	s.mu.Unlock()
	defer s.pending.Done()

	res := s.run(ctx, token, s.Project(), s.deps.Store.CurrentImageList())
	if err := ctx.Err(); err != nil && !res.Applied {
		return res, fmt.Errorf("draft: publish: %w", err)
	}
	return res, nil
}

func (s *Synchronizer) run(ctx context.Context, token uint64, payload StepOneDraft, images []imagecodec.Image) Result {
	encoded, failures := imagecodec.EncodeEach(ctx, images)
	res := Result{Token: token, Skipped: failures}
	if err := ctx.Err(); err != nil {
		s.deps.Logger.Printf("publication %d abandoned: %v", token, err)
		return res
	}
	for _, failure := range failures {
		s.deps.Logger.Printf("skipped image while publishing: %v", failure)
		s.deps.Journal.Warn("Image %d could not be saved and was left out of the draft", failure.Index+1)
	}

	s.commit.Lock()
	defer s.commit.Unlock()
	if token != s.issued.Load() {
		return res
	}
	values := s.deps.Form.Values()
	payload.Title = values[form.FieldTitle]
	payload.Description = values[form.FieldDescription]
	payload.TempImages = encoded
	s.deps.Store.SetStepDraft(wizard.StepOne, payload)

	res.Applied = true
	res.Draft = payload
	res.PersistErr = s.persist(ctx, payload)
	if res.PersistErr == nil {
		s.deps.Journal.Info("Draft saved · %d image(s)", len(encoded))
	}
	return res
}

// flush writes whatever the shared store holds for step one.
func (s *Synchronizer) flush(ctx context.Context) {
	s.commit.Lock()
	defer s.commit.Unlock()
	d, ok := Current(s.deps.Store)
	if !ok {
		return
	}
	_ = s.persist(ctx, d)
}

// persist writes d to durable storage. Failures are logged and returned for
// inspection; they never reach the form.
func (s *Synchronizer) persist(ctx context.Context, d StepOneDraft) error {
	if s.deps.Storage == nil {
		return nil
	}
	raw, err := d.Marshal()
	if err != nil {
		s.deps.Logger.Printf("%v", err)
		return err
	}
	if err := s.deps.Storage.Set(ctx, s.deps.key(), raw); err != nil {
		if storage.IsUnavailable(err) {
			s.deps.Logger.Printf("durable storage unavailable, keeping draft in memory: %v", err)
			s.deps.Journal.Warn("Draft could not be saved to disk")
		} else if !errors.Is(err, context.Canceled) {
			s.deps.Logger.Printf("persist: %v", err)
		}
		return err
	}
	return nil
}

// goTracked runs fn in the background unless the Synchronizer is closed.
// The check and the WaitGroup increment share s.mu with Close.
func (s *Synchronizer) goTracked(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	ctx := s.ctx
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		fn(ctx)
	}()
}

func isTracked(name string) bool {
	for _, field := range form.StepOneFields {
		if field == name {
			return true
		}
	}
	return false
}
