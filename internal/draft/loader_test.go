package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/albaform/internal/daterange"
	"github.com/kingrea/albaform/internal/form"
	"github.com/kingrea/albaform/internal/wizard"
)

func seed(t *testing.T, h *harness, d StepOneDraft) {
	t.Helper()
	raw, err := d.Marshal()
	require.NoError(t, err)
	require.NoError(t, h.storage.Set(context.Background(), DefaultKey, raw))
}

func recordLoading(l *Loader) *[]bool {
	flags := []bool{l.Loading()}
	l.OnState(func(LoadState) {
		if flags[len(flags)-1] != l.Loading() {
			flags = append(flags, l.Loading())
		}
	})
	return &flags
}

func TestLoadHydratesStoredDraft(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	img1 := testImage(t, 42)
	seed(t, h, StepOneDraft{
		Title:                "A",
		Description:          "B",
		RecruitmentStartDate: "2024-01-01",
		RecruitmentEndDate:   "2024-01-05",
		TempImages:           []string{encode(t, img1)},
	})
	var states []LoadState
	h.loader.OnState(func(s LoadState) { states = append(states, s) })
	flags := recordLoading(h.loader)

	res := h.loader.Load(context.Background())
	h.sync.Wait()

	require.True(t, res.Found)
	require.Equal(t, "A", h.form.Value(form.FieldTitle))
	require.Equal(t, "B", h.form.Value(form.FieldDescription))
	require.Equal(t, daterange.Range{"2024-01-01", "2024-01-05"}, h.rng.Range())

	images := h.store.CurrentImageList()
	require.Len(t, images, 1)
	require.Equal(t, img1.Data, images[0].Data)
	require.Equal(t, "imageUrls.png", images[0].Name)

	require.Equal(t, []LoadState{StateHydrating, StateReady}, states)
	require.Equal(t, []bool{true, false}, *flags)
	require.True(t, h.store.StepActive(wizard.StepOne))

	stored, ok := h.stored(t)
	require.True(t, ok)
	require.Equal(t, res.Draft, stored, "republished draft matches what was restored")
}

func TestLoadWithoutDraftLeavesFormUntouched(t *testing.T) {
	h := newHarness(t, form.WithValues(map[string]string{form.FieldTitle: "prefetched"}))
	h.start(t)
	var states []LoadState
	h.loader.OnState(func(s LoadState) { states = append(states, s) })
	flags := recordLoading(h.loader)

	res := h.loader.Load(context.Background())
	h.sync.Wait()

	require.False(t, res.Found)
	require.Equal(t, "prefetched", h.form.Value(form.FieldTitle))
	require.Empty(t, h.store.CurrentImageList())
	require.Equal(t, []LoadState{StateReady}, states)
	require.Equal(t, []bool{true, false}, *flags)
	require.Zero(t, h.storage.Writes())
}

func TestLoadRunsOnce(t *testing.T) {
	h := newHarness(t)
	seed(t, h, StepOneDraft{Title: "A"})
	transitions := 0
	h.loader.OnState(func(LoadState) { transitions++ })

	first := h.loader.Load(context.Background())
	h.form.SetValue(form.FieldTitle, "edited")
	second := h.loader.Load(context.Background())

	require.Equal(t, first, second)
	require.Equal(t, "edited", h.form.Value(form.FieldTitle))
	require.Equal(t, 2, transitions)
	require.False(t, h.loader.Loading())
}

func TestLoadSkipsUndecodableImages(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	good1 := testImage(t, 1)
	good2 := testImage(t, 2)
	seed(t, h, StepOneDraft{
		Title:      "A",
		TempImages: []string{encode(t, good1), "data:image/png;base64,%%%", encode(t, good2)},
	})

	res := h.loader.Load(context.Background())
	h.sync.Wait()

	require.True(t, res.Found)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, 1, res.Skipped[0].Index)
	images := h.store.CurrentImageList()
	require.Len(t, images, 2)
	require.Equal(t, good1.Data, images[0].Data)
	require.Equal(t, good2.Data, images[1].Data)
	require.Equal(t, "A", h.form.Value(form.FieldTitle))

	stored, _ := h.stored(t)
	require.Equal(t, []string{encode(t, good1), encode(t, good2)}, stored.TempImages)
}

func TestLoadTruncatesToImageLimit(t *testing.T) {
	h := newHarness(t)
	var texts []string
	for i := 0; i < 4; i++ {
		texts = append(texts, encode(t, testImage(t, uint8(i))))
	}
	seed(t, h, StepOneDraft{TempImages: texts})

	res := h.loader.Load(context.Background())
	require.Len(t, res.Images, 3)
	require.Len(t, res.Draft.TempImages, 3)
}

func TestLoadTreatsUnavailableStorageAsNoDraft(t *testing.T) {
	h := newHarness(t)
	seed(t, h, StepOneDraft{Title: "A"})
	h.storage.SetUnavailable(true)

	res := h.loader.Load(context.Background())
	require.False(t, res.Found)
	require.Empty(t, h.form.Value(form.FieldTitle))
	require.False(t, h.loader.Loading())
}

func TestLoadIgnoresCorruptSnapshot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.storage.Set(context.Background(), DefaultKey, "{not json"))

	res := h.loader.Load(context.Background())
	require.False(t, res.Found)
	require.Equal(t, StateReady, h.loader.State())
}

func TestHydrationDoesNotOverwriteSnapshotWithPartialState(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	stored := StepOneDraft{
		Title:                "A",
		Description:          "B",
		RecruitmentStartDate: "2024-01-01",
		RecruitmentEndDate:   "2024-01-05",
		TempImages:           []string{encode(t, testImage(t, 9))},
	}
	seed(t, h, stored)
	before := h.storage.Writes()

	h.loader.Load(context.Background())
	h.sync.Wait()

	require.Equal(t, before+1, h.storage.Writes(), "only the post-hydration publication writes")
	got, _ := h.stored(t)
	require.Equal(t, stored, got)
}

func TestLoadStateString(t *testing.T) {
	require.Equal(t, "loading", StateLoading.String())
	require.Equal(t, "hydrating", StateHydrating.String())
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "unknown", LoadState(9).String())
}
