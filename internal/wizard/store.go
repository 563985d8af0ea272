// Package wizard holds the state shared across wizard steps. A Store is
// created by the wizard's root, handed to each step explicitly and reset
// when the wizard completes.
package wizard

import (
	"sync"

	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/imagecodec"
)

// StepID identifies a wizard step.
type StepID string

// StepOne is the basics step: title, description, recruitment period and
// images.
const StepOne StepID = "stepOne"

// Store is the in-memory cross-step state.
type Store struct {
	mu          sync.Mutex
	images      []imagecodec.Image
	drafts      map[StepID]any
	active      map[StepID]bool
	subscribers map[int]func([]imagecodec.Image)
	nextID      int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		drafts:      map[StepID]any{},
		active:      map[StepID]bool{},
		subscribers: map[int]func([]imagecodec.Image){},
	}
}

// CurrentImageList returns a copy of the attached images.
func (s *Store) CurrentImageList() []imagecodec.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneImages(s.images)
}

// SetCurrentImageList replaces the image list and notifies subscribers.
func (s *Store) SetCurrentImageList(images []imagecodec.Image) {
	s.mu.Lock()
	s.images = cloneImages(images)
	snapshot := cloneImages(s.images)
	subscribers := s.subscriberList()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// SubscribeImages registers fn for image-list changes.
func (s *Store) SubscribeImages(fn func([]imagecodec.Image)) form.Unsubscribe {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// StepDraft returns the draft stored for step.
func (s *Store) StepDraft(step StepID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[step]
	return d, ok
}

// SetStepDraft overwrites the draft of step. Other steps are untouched.
func (s *Store) SetStepDraft(step StepID, draft any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[step] = draft
}

// UpdateStepDraft replaces the draft of step with fn's result while holding
// the store lock, so concurrent writers cannot interleave a read-modify-write.
func (s *Store) UpdateStepDraft(step StepID, fn func(current any, ok bool) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.drafts[step]
	s.drafts[step] = fn(current, ok)
}

// StepActive reports whether step has received user input.
func (s *Store) StepActive(step StepID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[step]
}

// MarkStepActive latches step as active. The latch lives as long as the
// store.
func (s *Store) MarkStepActive(step StepID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[step] = true
}

func (s *Store) subscriberList() []func([]imagecodec.Image) {
	out := make([]func([]imagecodec.Image), 0, len(s.subscribers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func cloneImages(images []imagecodec.Image) []imagecodec.Image {
	if images == nil {
		return nil
	}
	out := make([]imagecodec.Image, len(images))
	copy(out, images)
	return out
}
