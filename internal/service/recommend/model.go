package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrBadModel is returned when a model file fails structural validation.
var ErrBadModel = errors.New("recommend: malformed model file")

// featureOrder is the canonical feature vector layout the model was trained
// with. Model files must declare the same order.
var featureOrder = []string{
	"nitrogen", "phosphorus", "potassium",
	"temperature", "humidity", "ph", "rainfall",
}

// Features is one scoring input row.
type Features struct {
	Nitrogen     float64
	Phosphorus   float64
	Potassium    float64
	TemperatureC float64
	Humidity     float64
	SoilPH       float64
	RainfallMM   float64
}

func (f Features) vector() []float64 {
	return []float64{
		f.Nitrogen, f.Phosphorus, f.Potassium,
		f.TemperatureC, f.Humidity, f.SoilPH, f.RainfallMM,
	}
}

// node is one decision-tree node in the flattened array encoding.
// A node with Left < 0 is a leaf and Value is its output contribution.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// eval walks the tree for one feature vector.
func (t tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a pre-trained gradient-boosted crop classifier consumed opaquely:
// per boosting round, one regression tree per crop class; class scores are
// the base score plus the learning-rate-weighted sum of tree outputs, turned
// into probabilities with a softmax.
type Model struct {
	Version      string    `json:"version"`
	Features     []string  `json:"features"`
	Classes      []string  `json:"classes"`
	BaseScore    float64   `json:"base_score"`
	LearningRate float64   `json:"learning_rate"`
	Trees        [][]tree  `json:"trees"`
}

// LoadModel reads and validates a model file. An empty path returns
// (nil, nil): the service then falls back to heuristic ranking.
func LoadModel(path string) (*Model, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recommend: read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Join(ErrBadModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrBadModel)
	}
	if len(m.Features) != len(featureOrder) {
		return fmt.Errorf("%w: expected %d features, got %d", ErrBadModel, len(featureOrder), len(m.Features))
	}
	for i, f := range m.Features {
		if f != featureOrder[i] {
			return fmt.Errorf("%w: feature %d is %q, expected %q", ErrBadModel, i, f, featureOrder[i])
		}
	}
	if m.LearningRate <= 0 {
		return fmt.Errorf("%w: non-positive learning rate", ErrBadModel)
	}
	for round, trees := range m.Trees {
		if len(trees) != len(m.Classes) {
			return fmt.Errorf("%w: round %d has %d trees for %d classes", ErrBadModel, round, len(trees), len(m.Classes))
		}
		for ti, t := range trees {
			if len(t.Nodes) == 0 {
				return fmt.Errorf("%w: round %d tree %d is empty", ErrBadModel, round, ti)
			}
			for ni, n := range t.Nodes {
				if n.Left < 0 {
					continue
				}
				if n.Feature < 0 || n.Feature >= len(featureOrder) ||
					n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
					return fmt.Errorf("%w: round %d tree %d node %d out of range", ErrBadModel, round, ti, ni)
				}
				// Children must point forward (flattened preorder), so eval
				// provably terminates even on an adversarial file.
				if n.Left <= ni || n.Right <= ni {
					return fmt.Errorf("%w: round %d tree %d node %d has a back-edge", ErrBadModel, round, ti, ni)
				}
			}
		}
	}
	return nil
}

// Score returns per-class probabilities for one feature row.
func (m *Model) Score(f Features) []float64 {
	x := f.vector()

	raw := make([]float64, len(m.Classes))
	for i := range raw {
		raw[i] = m.BaseScore
	}
	for _, round := range m.Trees {
		for ci, t := range round {
			raw[ci] += m.LearningRate * t.eval(x)
		}
	}

	return softmax(raw)
}

// softmax converts raw scores to probabilities, shifted by the max for
// numerical stability.
func softmax(raw []float64) []float64 {
	maxRaw := raw[0]
	for _, v := range raw[1:] {
		maxRaw = max(maxRaw, v)
	}

	out := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		out[i] = math.Exp(v - maxRaw)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
