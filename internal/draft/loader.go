package draft

import (
	"context"
	"sync"

	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/imagecodec"
	"github.com/kingrea/albaform/internal/wizard"
)

// LoadState is the Loader's position in Loading -> Hydrating -> Ready.
type LoadState int

const (
	StateLoading LoadState = iota
	StateHydrating
	StateReady
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// LoadResult reports what a Load found.
type LoadResult struct {
	Found bool
	Draft StepOneDraft
	// Images are the decoded attachments, in stored order.
	Images []imagecodec.Image
	// Skipped lists stored images that could not be decoded.
	Skipped []*imagecodec.CodecError
}

// Loader hydrates step one from the durable snapshot when the step mounts.
// It becomes Ready only after the decoded images are in the shared store, so
// the form is never shown with a partially restored image list.
type Loader struct {
	deps       Deps
	sync       *Synchronizer
	imageLimit int

	mu        sync.Mutex
	state     LoadState
	observers []func(LoadState)
	once      sync.Once
	result    LoadResult
}

// LoaderOption customizes a Loader during construction.
type LoaderOption func(*Loader)

// WithSynchronizer makes the Loader hold the synchronizer's durable writes
// while hydrating, so a half-restored form is never written back.
func WithSynchronizer(s *Synchronizer) LoaderOption {
	return func(l *Loader) {
		l.sync = s
	}
}

// WithImageLimit truncates restored images to limit.
func WithImageLimit(limit int) LoaderOption {
	return func(l *Loader) {
		l.imageLimit = limit
	}
}

// NewLoader creates a loader in the Loading state.
func NewLoader(deps Deps, opts ...LoaderOption) *Loader {
	l := &Loader{deps: deps, state: StateLoading}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Loading reports whether the step should still render its placeholder.
func (l *Loader) Loading() bool {
	return l.State() != StateReady
}

// OnState registers fn for every state transition.
func (l *Loader) OnState(fn func(LoadState)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Load runs hydration once; later calls return the first result. Every
// failure is recovered: unavailable storage or an unreadable snapshot count
// as no draft, undecodable images are skipped.
func (l *Loader) Load(ctx context.Context) LoadResult {
	l.once.Do(func() {
		l.result = l.load(ctx)
		l.setState(StateReady)
	})
	return l.result
}

func (l *Loader) load(ctx context.Context) LoadResult {
	raw, ok, err := l.deps.Storage.Get(ctx, l.deps.key())
	if err != nil {
		l.deps.Logger.Printf("read %s: %v; starting without a draft", l.deps.key(), err)
		l.deps.Journal.Warn("Saved draft could not be read")
		return LoadResult{}
	}
	if !ok {
		return LoadResult{}
	}

	l.setState(StateHydrating)
	d, err := Parse(raw)
	if err != nil {
		l.deps.Logger.Printf("unreadable snapshot, starting without a draft: %v", err)
		l.deps.Journal.Warn("Saved draft is corrupt and was ignored")
		return LoadResult{}
	}

	if l.sync != nil {
		release := l.sync.Hold()
		defer release()
	}

	images, failures := imagecodec.DecodeEach(ctx, d.TempImages, imageNameHint)
	for _, failure := range failures {
		l.deps.Logger.Printf("skipped stored image: %v", failure)
		l.deps.Journal.Warn("Saved image %d could not be restored", failure.Index+1)
	}
	d.TempImages = dropFailed(d.TempImages, failures)
	if l.imageLimit > 0 && len(images) > l.imageLimit {
		images = images[:l.imageLimit]
		d.TempImages = d.TempImages[:l.imageLimit]
	}

	l.deps.Store.SetStepDraft(wizard.StepOne, d)
	l.deps.Store.SetCurrentImageList(images)
	l.deps.Form.SetValues(map[string]string{
		form.FieldTitle:       d.Title,
		form.FieldDescription: d.Description,
	})
	l.deps.Range.Set(d.RecruitmentStartDate, d.RecruitmentEndDate)

	l.deps.Journal.Info("Draft restored · %d image(s)", len(images))
	return LoadResult{Found: true, Draft: d, Images: images, Skipped: failures}
}

func (l *Loader) setState(next LoadState) {
	l.mu.Lock()
	if l.state == next {
		l.mu.Unlock()
		return
	}
	l.state = next
	observers := append([]func(LoadState){}, l.observers...)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

func dropFailed(texts []string, failures []*imagecodec.CodecError) []string {
	if len(failures) == 0 {
		return texts
	}
	bad := make(map[int]bool, len(failures))
	for _, failure := range failures {
		bad[failure.Index] = true
	}
	out := make([]string, 0, len(texts)-len(failures))
	for i, text := range texts {
		if !bad[i] {
			out = append(out, text)
		}
	}
	return out
}
