package segments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SegmentsContainer(t *testing.T) {
	raw := json.RawMessage(`[{"2023-09-30":{"Segments":{"iPhone":200,"iPad":50,"Services":-5}}}]`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "iPhone", entries[0].Name)
	assert.InDelta(t, 200, entries[0].Value, 0.001)
	assert.InDelta(t, 80, entries[0].Percentage, 0.001)

	assert.Equal(t, "iPad", entries[1].Name)
	assert.InDelta(t, 20, entries[1].Percentage, 0.001)
}

func TestAggregate_DateKeyedWrapper(t *testing.T) {
	raw := json.RawMessage(`{"2024-03-31":{"segments":{"Cloud":300,"Ads":100}}}`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Cloud", entries[0].Name)
	assert.InDelta(t, 75, entries[0].Percentage, 0.001)
}

func TestAggregate_GeographicContainer(t *testing.T) {
	raw := json.RawMessage(`[{"2023-12-31":{"Geographical":{"NorthAmerica":600,"Europe":300,"AsiaPacific":100}}}]`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "North America", entries[0].Name)
	assert.InDelta(t, 60, entries[0].Percentage, 0.001)
	assert.Equal(t, "Asia Pacific", entries[2].Name)
}

func TestAggregate_FlatNumericMap(t *testing.T) {
	// No recognized container: fall back to treating the object as a
	// numeric map, skipping date and period keys.
	raw := json.RawMessage(`[{"date":"2023-09-30","period":"FY","Hardware":120,"Software":80}]`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Hardware", entries[0].Name)
	assert.InDelta(t, 60, entries[0].Percentage, 0.001)
}

func TestAggregate_AllNegativeFallback(t *testing.T) {
	raw := json.RawMessage(`{"Segments":{"Restructuring":-30,"Impairments":-70}}`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Entries are kept so the chart is not empty; shares stay proportional.
	assert.Equal(t, "Restructuring", entries[0].Name)
	assert.InDelta(t, 30, entries[0].Percentage, 0.001)
}

func TestAggregate_ZeroTotal(t *testing.T) {
	raw := json.RawMessage(`{"Segments":{"A":0,"B":0}}`)
	entries, err := Aggregate(raw)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAggregate_MultiplePeriodsSum(t *testing.T) {
	raw := json.RawMessage(`[
		{"2023-09-30":{"Segments":{"iPhone":200,"Mac":40}}},
		{"2022-09-24":{"Segments":{"iPhone":190,"Mac":40}}}
	]`)

	entries, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "iPhone", entries[0].Name)
	assert.InDelta(t, 390, entries[0].Value, 0.001)
}

func TestAggregate_Deterministic(t *testing.T) {
	raw := json.RawMessage(`{"Segments":{"A":100,"B":100,"C":50}}`)

	first, err := Aggregate(raw)
	require.NoError(t, err)
	second, err := Aggregate(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Equal values tie-break by name.
	assert.Equal(t, "A", first[0].Name)
	assert.Equal(t, "B", first[1].Name)
}

func TestAggregate_InvalidPayload(t *testing.T) {
	_, err := Aggregate(json.RawMessage(`{not json`))
	require.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"iPhone", "iPhone"},
		{"NorthAmerica", "North America"},
		{"united_states", "united states"},
		{"GreaterChina", "Greater China"},
		{"Mac", "Mac"},
		{"iPad", "iPad"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeName(tt.in))
		})
	}
}
