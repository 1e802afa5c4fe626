package planner_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/endurance-planner/internal/planner"
)

func TestWeekContent_UnmarshalKeepsKeyOrder(t *testing.T) {
	raw := `{"2025-03-09": ["Long run 90 min"], "2025-03-03": "Rest", "2025-03-05": null, "2025-03-04": ["Swim 30 min", "Core 10 min"]}`

	var c planner.WeekContent
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	require.Len(t, c, 4)
	assert.Equal(t, "2025-03-09", c[0].Date)
	assert.Equal(t, []string{"Rest"}, c[1].Items)
	assert.Nil(t, c[2].Items)
	assert.Equal(t, []string{"Swim 30 min", "Core 10 min"}, c[3].Items)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-03-09":["Long run 90 min"],"2025-03-03":["Rest"],"2025-03-05":[],"2025-03-04":["Swim 30 min","Core 10 min"]}`, string(out))
}

func TestWeekContent_UnmarshalRejectsBadShapes(t *testing.T) {
	var c planner.WeekContent
	assert.Error(t, json.Unmarshal([]byte(`["2025-03-03"]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"2025-03-03": [1, 2]}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"2025-03-03": {"a": "b"}}`), &c))
}
