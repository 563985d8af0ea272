// Package attachment models the image-attachment control of step one: an
// ordered list of images capped at a fixed limit.
package attachment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kingrea/albaform/internal/imagecodec"
)

var (
	// ErrLimitReached is returned when an add would exceed the limit.
	ErrLimitReached = errors.New("attachment: image limit reached")
	// ErrNotImage is returned for files whose content is not an image.
	ErrNotImage = errors.New("attachment: file is not an image")
)

// Control holds the attached images in display order.
type Control struct {
	mu       sync.Mutex
	limit    int
	images   []imagecodec.Image
	onChange func([]imagecodec.Image)
}

// New creates a control with the given limit. onChange receives a copy of
// the list after every successful add or remove.
func New(limit int, onChange func([]imagecodec.Image)) *Control {
	return &Control{limit: limit, onChange: onChange}
}

// Limit returns the maximum number of images.
func (c *Control) Limit() int {
	return c.limit
}

// Images returns a copy of the attached images.
func (c *Control) Images() []imagecodec.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.images)
}

// Len returns the number of attached images.
func (c *Control) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Add appends img to the list.
func (c *Control) Add(img imagecodec.Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("attachment: %s is empty", img.Name)
	}
	detected := mimetype.Detect(img.Data)
	if !isImage(detected) {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, img.Name, detected.String())
	}
	if img.MIME == "" {
		img.MIME = detected.String()
	}

	c.mu.Lock()
	if len(c.images) >= c.limit {
		c.mu.Unlock()
		return fmt.Errorf("%w (%d)", ErrLimitReached, c.limit)
	}
	c.images = append(c.images, img)
	snapshot := clone(c.images)
	c.mu.Unlock()

	c.emit(snapshot)
	return nil
}

// AddFile reads the file at path and attaches it.
func (c *Control) AddFile(path string) error {
	if c.Len() >= c.limit {
		return fmt.Errorf("%w (%d)", ErrLimitReached, c.limit)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("attachment: read %s: %w", path, err)
	}
	return c.Add(imagecodec.Image{Name: filepath.Base(path), Data: data})
}

// Remove drops the image at index.
func (c *Control) Remove(index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.images) {
		c.mu.Unlock()
		return fmt.Errorf("attachment: no image at index %d", index)
	}
	c.images = append(c.images[:index:index], c.images[index+1:]...)
	snapshot := clone(c.images)
	c.mu.Unlock()

	c.emit(snapshot)
	return nil
}

// Reset replaces the list without notifying, used when the shared store is
// the source of the change.
func (c *Control) Reset(images []imagecodec.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(images) > c.limit {
		images = images[:c.limit]
	}
	c.images = clone(images)
}

func (c *Control) emit(images []imagecodec.Image) {
	if c.onChange != nil {
		c.onChange(images)
	}
}

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

func clone(images []imagecodec.Image) []imagecodec.Image {
	if images == nil {
		return nil
	}
	out := make([]imagecodec.Image, len(images))
	copy(out, images)
	return out
}
