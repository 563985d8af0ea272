// Package draft keeps step one of the wizard durable: the Synchronizer
// mirrors live form edits into the shared store and publishes encoded
// snapshots to durable storage; the Loader hydrates the form from the last
// snapshot when the step mounts.
package draft

import (
	"encoding/json"
	"fmt"

	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/wizard"
)

// DefaultKey is the durable storage key of the step-one draft.
const DefaultKey = string(wizard.StepOne)

// imageNameHint names decoded images, matching the upload field they feed.
const imageNameHint = "imageUrls"

// StepOneDraft is the persisted and shared representation of step one.
type StepOneDraft struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	RecruitmentStartDate string   `json:"recruitmentStartDate"`
	RecruitmentEndDate   string   `json:"recruitmentEndDate"`
	TempImages           []string `json:"tempImage"`
}

// Field returns the value of a tracked text field.
func (d StepOneDraft) Field(name string) string {
	switch name {
	case form.FieldTitle:
		return d.Title
	case form.FieldDescription:
		return d.Description
	case form.FieldRecruitmentStartDate:
		return d.RecruitmentStartDate
	case form.FieldRecruitmentEndDate:
		return d.RecruitmentEndDate
	default:
		return ""
	}
}

// Marshal encodes the draft the way it is stored.
func (d StepOneDraft) Marshal() (string, error) {
	if d.TempImages == nil {
		d.TempImages = []string{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("draft: encode: %w", err)
	}
	return string(data), nil
}

// Parse decodes a stored draft. Drafts written with the plural
// "tempImages" key are accepted too.
func Parse(raw string) (StepOneDraft, error) {
	var wire struct {
		StepOneDraft
		TempImagesPlural []string `json:"tempImages"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return StepOneDraft{}, fmt.Errorf("draft: parse: %w", err)
	}
	d := wire.StepOneDraft
	if len(d.TempImages) == 0 && len(wire.TempImagesPlural) > 0 {
		d.TempImages = wire.TempImagesPlural
	}
	return d, nil
}

// Current returns the step-one draft held by the shared store.
func Current(store *wizard.Store) (StepOneDraft, bool) {
	v, ok := store.StepDraft(wizard.StepOne)
	if !ok {
		return StepOneDraft{}, false
	}
	d, ok := v.(StepOneDraft)
	return d, ok
}
