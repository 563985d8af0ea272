package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetValuesNotifiesAfterAllPairsApplied(t *testing.T) {
	c := NewController()
	var seen []Change
	unsubscribe := c.Watch(func(ch Change) { seen = append(seen, ch) })
	defer unsubscribe()

	c.SetValues(map[string]string{
		FieldRecruitmentStartDate: "2024-01-01",
		FieldRecruitmentEndDate:   "2024-01-05",
	})

	require.Len(t, seen, 2)
	for _, ch := range seen {
		require.Equal(t, "2024-01-01", ch.Values[FieldRecruitmentStartDate])
		require.Equal(t, "2024-01-05", ch.Values[FieldRecruitmentEndDate])
	}
	require.Equal(t, FieldRecruitmentEndDate, seen[0].Name)
	require.Equal(t, FieldRecruitmentStartDate, seen[1].Name)
}

func TestUnchangedValuesAreNotReported(t *testing.T) {
	c := NewController(WithValues(map[string]string{FieldTitle: "A"}))
	calls := 0
	c.Watch(func(Change) { calls++ })
	c.SetValue(FieldTitle, "A")
	require.Zero(t, calls)
	c.SetValue(FieldTitle, "B")
	require.Equal(t, 1, calls)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := NewController()
	calls := 0
	unsubscribe := c.Watch(func(Change) { calls++ })
	require.Equal(t, 1, c.Watchers())
	unsubscribe()
	unsubscribe()
	require.Zero(t, c.Watchers())
	c.SetValue(FieldTitle, "A")
	require.Zero(t, calls)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		errors []string
	}{
		{
			name:   "empty form",
			values: nil,
			errors: StepOneFields,
		},
		{
			name: "valid",
			values: map[string]string{
				FieldTitle:                "Cafe crew",
				FieldDescription:          "Weekend shifts",
				FieldRecruitmentStartDate: "2024-01-01",
				FieldRecruitmentEndDate:   "2024-01-05",
			},
		},
		{
			name: "description too long and bad date",
			values: map[string]string{
				FieldTitle:                "Cafe crew",
				FieldDescription:          strings.Repeat("가", 201),
				FieldRecruitmentStartDate: "01/01/2024",
				FieldRecruitmentEndDate:   "2024-01-05",
			},
			errors: []string{FieldDescription, FieldRecruitmentStartDate},
		},
		{
			name: "end before start",
			values: map[string]string{
				FieldTitle:                "Cafe crew",
				FieldDescription:          "Weekend shifts",
				FieldRecruitmentStartDate: "2024-02-01",
				FieldRecruitmentEndDate:   "2024-01-05",
			},
			errors: []string{FieldRecruitmentEndDate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(WithValues(tt.values))
			ok := c.Validate()
			require.Equal(t, len(tt.errors) == 0, ok)
			errs := c.Errors()
			require.Len(t, errs, len(tt.errors))
			for _, name := range tt.errors {
				require.NotEmpty(t, errs[name], name)
			}
		})
	}
}

func TestValidateDoesNotTouchValues(t *testing.T) {
	c := NewController(WithRules(DefaultRules(5)), WithValues(map[string]string{FieldDescription: "too long"}))
	c.Validate()
	require.Equal(t, "must be at most 5 characters", c.Error(FieldDescription))
	require.Equal(t, "too long", c.Value(FieldDescription))
	c.ClearErrors()
	require.Empty(t, c.Errors())
}

func TestIsBlank(t *testing.T) {
	require.True(t, IsBlank("   "))
	require.False(t, IsBlank(" a "))
}
