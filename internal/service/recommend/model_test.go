package recommend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// twoClassModel is a minimal valid model: one boosting round, one stump per
// class splitting on temperature at 20C. Class "rice" wins warm rows, class
// "wheat" wins cool rows.
const twoClassModel = `{
	"version": "test-1",
	"features": ["nitrogen","phosphorus","potassium","temperature","humidity","ph","rainfall"],
	"classes": ["rice","wheat"],
	"base_score": 0.5,
	"learning_rate": 0.3,
	"trees": [
		[
			{"nodes": [
				{"feature":3,"threshold":20,"left":1,"right":2},
				{"feature":0,"threshold":0,"left":-1,"right":-1,"value":-2},
				{"feature":0,"threshold":0,"left":-1,"right":-1,"value":2}
			]},
			{"nodes": [
				{"feature":3,"threshold":20,"left":1,"right":2},
				{"feature":0,"threshold":0,"left":-1,"right":-1,"value":2},
				{"feature":0,"threshold":0,"left":-1,"right":-1,"value":-2}
			]}
		]
	]
}`

func TestLoadModel(t *testing.T) {
	t.Parallel()

	t.Run("empty path disables the model", func(t *testing.T) {
		t.Parallel()

		m, err := LoadModel("")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(writeModelFile(t, "{not json"))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("feature order mismatch", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(writeModelFile(t, `{
			"version": "bad",
			"features": ["ph","nitrogen","phosphorus","potassium","temperature","humidity","rainfall"],
			"classes": ["rice"],
			"learning_rate": 0.3,
			"trees": []
		}`))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("tree count must match classes", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(writeModelFile(t, `{
			"version": "bad",
			"features": ["nitrogen","phosphorus","potassium","temperature","humidity","ph","rainfall"],
			"classes": ["rice","wheat"],
			"learning_rate": 0.3,
			"trees": [[{"nodes":[{"left":-1,"right":-1,"value":1}]}]]
		}`))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("child index out of range", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(writeModelFile(t, `{
			"version": "bad",
			"features": ["nitrogen","phosphorus","potassium","temperature","humidity","ph","rainfall"],
			"classes": ["rice"],
			"learning_rate": 0.3,
			"trees": [[{"nodes":[{"feature":0,"threshold":1,"left":5,"right":0}]}]]
		}`))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("self-referencing node is rejected", func(t *testing.T) {
		t.Parallel()

		// A back-edge would make tree evaluation loop forever.
		_, err := LoadModel(writeModelFile(t, `{
			"version": "bad",
			"features": ["nitrogen","phosphorus","potassium","temperature","humidity","ph","rainfall"],
			"classes": ["rice"],
			"learning_rate": 0.3,
			"trees": [[{"nodes":[
				{"feature":0,"threshold":1,"left":0,"right":1},
				{"left":-1,"right":-1,"value":1}
			]}]]
		}`))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("backward child index is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := LoadModel(writeModelFile(t, `{
			"version": "bad",
			"features": ["nitrogen","phosphorus","potassium","temperature","humidity","ph","rainfall"],
			"classes": ["rice"],
			"learning_rate": 0.3,
			"trees": [[{"nodes":[
				{"feature":0,"threshold":1,"left":1,"right":2},
				{"feature":1,"threshold":1,"left":0,"right":2},
				{"left":-1,"right":-1,"value":1}
			]}]]
		}`))
		require.ErrorIs(t, err, ErrBadModel)
	})

	t.Run("valid model", func(t *testing.T) {
		t.Parallel()

		m, err := LoadModel(writeModelFile(t, twoClassModel))
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "test-1", m.Version)
		assert.Equal(t, []string{"rice", "wheat"}, m.Classes)
	})
}

func TestModelScore(t *testing.T) {
	t.Parallel()

	m, err := LoadModel(writeModelFile(t, twoClassModel))
	require.NoError(t, err)

	t.Run("warm row favors rice", func(t *testing.T) {
		t.Parallel()

		probs := m.Score(Features{TemperatureC: 28})
		require.Len(t, probs, 2)
		assert.Greater(t, probs[0], probs[1])
		assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
	})

	t.Run("cool row favors wheat", func(t *testing.T) {
		t.Parallel()

		probs := m.Score(Features{TemperatureC: 14})
		assert.Greater(t, probs[1], probs[0])
	})
}

func TestHeuristicScores(t *testing.T) {
	t.Parallel()

	t.Run("paddy conditions rank rice first", func(t *testing.T) {
		t.Parallel()

		scores := heuristicScores(Features{
			Nitrogen:     80,
			TemperatureC: 27,
			Humidity:     82,
			SoilPH:       6.2,
			RainfallMM:   220,
		})
		require.NotEmpty(t, scores)
		assert.Equal(t, "rice", scores[0].Crop)
		assert.Equal(t, 1, scores[0].Rank)

		var total float64
		for _, s := range scores {
			total += s.Probability
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})

	t.Run("cool dry winter ranks a rabi crop first", func(t *testing.T) {
		t.Parallel()

		scores := heuristicScores(Features{
			Nitrogen:     60,
			TemperatureC: 18,
			Humidity:     60,
			SoilPH:       6.8,
			RainfallMM:   50,
		})
		require.NotEmpty(t, scores)
		assert.Contains(t, []string{"wheat", "mustard", "chickpea", "lentil"}, scores[0].Crop)
	})

	t.Run("ranks are sequential", func(t *testing.T) {
		t.Parallel()

		scores := heuristicScores(Features{TemperatureC: 25, Humidity: 60, SoilPH: 6.5, RainfallMM: 80})
		for i, s := range scores {
			assert.Equal(t, i+1, s.Rank)
		}
	})
}

func TestBandScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, bandScore(25, 20, 30))
	assert.Equal(t, 1.0, bandScore(20, 20, 30))
	assert.InDelta(t, 0.5, bandScore(35, 20, 30), 1e-9)
	assert.Equal(t, 0.0, bandScore(45, 20, 30))
	assert.InDelta(t, 0.7, bandScore(17, 20, 30), 1e-9)
}
