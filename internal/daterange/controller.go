// Package daterange bridges the two-endpoint recruitment period picked in
// the calendar with the two independent date fields of the form.
package daterange

import (
	"sync"

	"github.com/kingrea/albaform/internal/form"
)

// Range is the [start, end] pair handed to the range picker.
type Range [2]string

// Start returns the first endpoint.
func (r Range) Start() string { return r[0] }

// End returns the second endpoint.
func (r Range) End() string { return r[1] }

// IsZero reports whether both endpoints are empty.
func (r Range) IsZero() bool { return r[0] == "" && r[1] == "" }

// Controller is the only writer of the two recruitment date fields.
type Controller struct {
	form *form.Controller

	mu        sync.Mutex
	value     Range
	listeners map[int]func(Range)
	nextID    int
}

// New creates a controller bound to f. When f already holds both dates the
// local range starts from them so the picker never renders empty while the
// form has values.
func New(f *form.Controller) *Controller {
	c := &Controller{form: f, listeners: map[int]func(Range){}}
	c.value = fromForm(f)
	return c
}

// Range returns the authoritative range.
func (c *Controller) Range() Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores the range, writes both form fields in one update and notifies
// listeners. No ordering check is applied to the endpoints.
func (c *Controller) Set(start, end string) {
	next := Range{start, end}
	c.mu.Lock()
	c.value = next
	listeners := c.listenerList()
	c.mu.Unlock()

	c.form.SetValues(map[string]string{
		form.FieldRecruitmentStartDate: start,
		form.FieldRecruitmentEndDate:   end,
	})
	for _, fn := range listeners {
		fn(next)
	}
}

// Sync adopts the form's dates when both are set. It returns true when the
// range changed.
func (c *Controller) Sync() bool {
	r := fromForm(c.form)
	if r[0] == "" || r[1] == "" {
		return false
	}
	c.mu.Lock()
	if c.value == r {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	c.Set(r[0], r[1])
	return true
}

// Follow watches the form's date fields and adopts them through Sync, so
// dates written to the form after New (a prefetch, a restored draft) reach
// the picker. The returned Unsubscribe stops following.
func (c *Controller) Follow() form.Unsubscribe {
	return c.form.Watch(func(ch form.Change) {
		switch ch.Name {
		case form.FieldRecruitmentStartDate, form.FieldRecruitmentEndDate:
			c.Sync()
		}
	})
}

// OnChange registers fn for every range update and returns its cleanup.
func (c *Controller) OnChange(fn func(Range)) form.Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) listenerList() []func(Range) {
	out := make([]func(Range), 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func fromForm(f *form.Controller) Range {
	start := f.Value(form.FieldRecruitmentStartDate)
	end := f.Value(form.FieldRecruitmentEndDate)
	if start == "" || end == "" {
		return Range{}
	}
	return Range{start, end}
}
