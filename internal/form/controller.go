// Package form is the field-value controller shared by the wizard steps.
// It owns the live values, notifies watchers on every change and keeps the
// validation error map the inputs render inline.
package form

import (
	"sort"
	"strings"
	"sync"
)

// Tracked step-one field names.
const (
	FieldTitle                = "title"
	FieldDescription          = "description"
	FieldRecruitmentStartDate = "recruitmentStartDate"
	FieldRecruitmentEndDate   = "recruitmentEndDate"
)

// StepOneFields lists the step-one fields in display order.
var StepOneFields = []string{
	FieldTitle,
	FieldDescription,
	FieldRecruitmentStartDate,
	FieldRecruitmentEndDate,
}

// Change describes a single field update delivered to watchers.
type Change struct {
	Name   string
	Value  string
	Values map[string]string
}

// Unsubscribe removes a watcher. It is safe to call more than once.
type Unsubscribe func()

// Controller holds field values for one wizard.
type Controller struct {
	mu       sync.Mutex
	values   map[string]string
	errors   map[string]string
	watchers map[int]func(Change)
	nextID   int
	rules    map[string]string
}

// Option customizes a Controller during construction.
type Option func(*Controller)

// WithRules replaces the validation rules (field name to validator tag).
func WithRules(rules map[string]string) Option {
	return func(c *Controller) {
		c.rules = rules
	}
}

// WithValues pre-fills the controller, e.g. from a server-prefetched draft.
func WithValues(values map[string]string) Option {
	return func(c *Controller) {
		for k, v := range values {
			c.values[k] = v
		}
	}
}

// NewController creates an empty controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		values:   map[string]string{},
		errors:   map[string]string{},
		watchers: map[int]func(Change){},
		rules:    DefaultRules(defaultDescriptionMax),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Value returns the current value of name.
func (c *Controller) Value(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// Values returns a copy of every value.
func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.values)
}

// SetValue updates one field and notifies watchers.
func (c *Controller) SetValue(name, value string) {
	c.SetValues(map[string]string{name: value})
}

// SetValues applies every pair before any watcher runs, so watchers never
// observe a partially applied update. Watchers are called once per changed
// field in name order; unchanged fields are not reported.
func (c *Controller) SetValues(values map[string]string) {
	c.mu.Lock()
	var changed []string
	for name, value := range values {
		if current, ok := c.values[name]; ok && current == value {
			continue
		}
		c.values[name] = value
		changed = append(changed, name)
	}
	if len(changed) == 0 {
		c.mu.Unlock()
		return
	}
	sort.Strings(changed)
	snapshot := copyMap(c.values)
	watchers := c.watcherList()
	c.mu.Unlock()

	for _, name := range changed {
		change := Change{Name: name, Value: snapshot[name], Values: snapshot}
		for _, fn := range watchers {
			fn(change)
		}
	}
}

// Watch registers fn for every field change. The returned Unsubscribe must
// be called when the watcher's owner is torn down.
func (c *Controller) Watch(fn func(Change)) Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

// Watchers returns the number of registered watchers.
func (c *Controller) Watchers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// Errors returns a copy of the validation error map keyed by field name.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.errors)
}

// Error returns the validation message for name, if any.
func (c *Controller) Error(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors[name]
}

func (c *Controller) watcherList() []func(Change) {
	ids := make([]int, 0, len(c.watchers))
	for id := range c.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, c.watchers[id])
	}
	return out
}

// IsBlank reports whether a value counts as empty for step activity.
func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
