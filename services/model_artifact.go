package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

const (
	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"
	KindRemote       = "remote"
)

// artifact is the JSON export format produced by the training pipeline.
type artifact struct {
	Kind string `json:"kind"`

	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`

	Aggregation string         `json:"aggregation"`
	BaseScore   float64        `json:"base_score"`
	Trees       []treeArtifact `json:"trees"`
}

type treeArtifact struct {
	Nodes []nodeArtifact `json:"nodes"`
}

type nodeArtifact struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Feature   string  `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// LoadArtifact reads a model file and binds it to the schema.
func LoadArtifact(path string, schema *FeatureSchema) (Model, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, "", fmt.Errorf("parse artifact %s: %w", path, err)
	}

	switch a.Kind {
	case KindLinear:
		m, err := newLinearModel(a, schema)
		return m, KindLinear, err
	case KindTreeEnsemble:
		m, err := newTreeEnsemble(a, schema)
		return m, KindTreeEnsemble, err
	default:
		return nil, "", fmt.Errorf("artifact %s: unknown kind %q", path, a.Kind)
	}
}

// LinearModel computes intercept + coefficients·features.
type LinearModel struct {
	intercept float64
	coef      []float64
}

func newLinearModel(a artifact, schema *FeatureSchema) (*LinearModel, error) {
	coef := make([]float64, schema.Len())
	for col, w := range a.Coefficients {
		i, ok := schema.Index(col)
		if !ok {
			return nil, fmt.Errorf("linear model: coefficient for unknown column %q", col)
		}
		coef[i] = w
	}
	return &LinearModel{intercept: a.Intercept, coef: coef}, nil
}

func (m *LinearModel) Predict(_ context.Context, fv FeatureVector) (float64, error) {
	x := fv.Values()
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("linear model: got %d features, want %d", len(x), len(m.coef))
	}
	return m.intercept + floats.Dot(m.coef, x), nil
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

// TreeEnsemble evaluates regression trees: a sample goes left when
// feature <= threshold. "mean" averages the trees (random forest), "sum" adds
// them to base_score (gradient boosting).
type TreeEnsemble struct {
	trees     [][]treeNode
	mean      bool
	baseScore float64
	width     int
}

func newTreeEnsemble(a artifact, schema *FeatureSchema) (*TreeEnsemble, error) {
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("tree ensemble: no trees")
	}
	var mean bool
	switch a.Aggregation {
	case "mean", "":
		mean = true
	case "sum":
	default:
		return nil, fmt.Errorf("tree ensemble: unknown aggregation %q", a.Aggregation)
	}

	trees := make([][]treeNode, len(a.Trees))
	for t, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree ensemble: tree %d is empty", t)
		}
		nodes := make([]treeNode, len(tree.Nodes))
		for i, n := range tree.Nodes {
			if n.Leaf {
				nodes[i] = treeNode{leaf: true, value: n.Value}
				continue
			}
			col, ok := schema.Index(n.Feature)
			if !ok {
				return nil, fmt.Errorf("tree ensemble: tree %d node %d splits on unknown column %q", t, i, n.Feature)
			}
			// Children must point forward so evaluation always terminates.
			if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("tree ensemble: tree %d node %d has invalid children", t, i)
			}
			nodes[i] = treeNode{feature: col, threshold: n.Threshold, left: n.Left, right: n.Right}
		}
		trees[t] = nodes
	}
	return &TreeEnsemble{trees: trees, mean: mean, baseScore: a.BaseScore, width: schema.Len()}, nil
}

func (m *TreeEnsemble) Predict(_ context.Context, fv FeatureVector) (float64, error) {
	x := fv.Values()
	if len(x) != m.width {
		return 0, fmt.Errorf("tree ensemble: got %d features, want %d", len(x), m.width)
	}
	var total float64
	for _, nodes := range m.trees {
		i := 0
		for !nodes[i].leaf {
			if x[nodes[i].feature] <= nodes[i].threshold {
				i = nodes[i].left
			} else {
				i = nodes[i].right
			}
		}
		total += nodes[i].value
	}
	if m.mean {
		return total / float64(len(m.trees)), nil
	}
	return m.baseScore + total, nil
}
