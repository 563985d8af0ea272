package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/albaform/internal/imagecodec"
)

const (
	stepTwo   StepID = "stepTwo"
	stepThree StepID = "stepThree"
)

func TestStepActiveLatch(t *testing.T) {
	s := NewStore()
	require.False(t, s.StepActive(StepOne))
	s.MarkStepActive(StepOne)
	s.MarkStepActive(StepOne)
	require.True(t, s.StepActive(StepOne))
	require.False(t, s.StepActive(stepTwo))
}

func TestStepDraftsAreIsolated(t *testing.T) {
	s := NewStore()
	s.SetStepDraft(StepOne, "one")
	s.SetStepDraft(stepTwo, "two")
	s.SetStepDraft(StepOne, "one-b")

	one, ok := s.StepDraft(StepOne)
	require.True(t, ok)
	require.Equal(t, "one-b", one)
	two, _ := s.StepDraft(stepTwo)
	require.Equal(t, "two", two)

	s.UpdateStepDraft(stepThree, func(current any, ok bool) any {
		require.False(t, ok)
		return "three"
	})
	three, ok := s.StepDraft(stepThree)
	require.True(t, ok)
	require.Equal(t, "three", three)
}

func TestImageSubscriptions(t *testing.T) {
	s := NewStore()
	var got [][]imagecodec.Image
	unsubscribe := s.SubscribeImages(func(images []imagecodec.Image) { got = append(got, images) })

	list := []imagecodec.Image{{Name: "a"}, {Name: "b"}}
	s.SetCurrentImageList(list)
	list[0].Name = "mutated"

	require.Len(t, got, 1)
	require.Equal(t, "a", got[0][0].Name)
	require.Equal(t, "a", s.CurrentImageList()[0].Name)

	unsubscribe()
	s.SetCurrentImageList(nil)
	require.Len(t, got, 1)
}
