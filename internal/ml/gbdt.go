package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// GBDT is a gradient-boosted decision tree classifier over the logistic
// loss. Trees split numeric features on thresholds and categorical features
// on learned category subsets, so carrier and airport codes can be used
// without a separate encoding step.
type GBDT struct {
	Base         float64  `json:"base"`
	LearningRate float64  `json:"learning_rate"`
	Features     []string `json:"features"`
	Trees        []*Node  `json:"trees"`
}

// Node is one tree node. Leaf nodes carry a log-odds contribution. Split
// nodes test either Threshold (numeric, left when value < Threshold) or
// Cats (categorical, left when the value is a member).
type Node struct {
	Leaf      bool     `json:"leaf,omitempty"`
	Value     float64  `json:"value,omitempty"`
	Feature   int      `json:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Cats      []string `json:"cats,omitempty"`
	Left      *Node    `json:"left,omitempty"`
	Right     *Node    `json:"right,omitempty"`
}

// FitConfig controls boosting. Zero values fall back to the defaults used
// by the production training runs.
type FitConfig struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int
	Lambda       float64
	Balanced     bool
}

func (c FitConfig) withDefaults() FitConfig {
	if c.Rounds <= 0 {
		c.Rounds = 200
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 6
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 5
	}
	if c.Lambda <= 0 {
		c.Lambda = 1.0
	}
	return c
}

// Score returns the probability of the positive class for one sample. The
// sample must have the same cardinality and order as the fitted feature
// list; a mismatch means the caller holds a stale artifact.
func (m *GBDT) Score(s Sample) (float64, error) {
	if len(s.Values) != len(m.Features) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(s.Values), len(m.Features))
	}
	f := m.Base
	for _, t := range m.Trees {
		f += m.LearningRate * t.eval(s.Values)
	}
	return sigmoid(f), nil
}

func (n *Node) eval(vals []Value) float64 {
	for !n.Leaf {
		v := vals[n.Feature]
		if len(n.Cats) > 0 {
			if containsCat(n.Cats, v.Cat) {
				n = n.Left
			} else {
				n = n.Right
			}
		} else if v.Num < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Category sets stay small (a handful of carriers or airports per split), a
// linear scan keeps scoring allocation-free and race-free.
func containsCat(cats []string, v string) bool {
	for _, c := range cats {
		if c == v {
			return true
		}
	}
	return false
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

type column struct {
	isCat bool
	nums  []float64
	cats  []string
}

type fitState struct {
	cfg  FitConfig
	cols []column
	grad []float64
	hess []float64
}

// Fit trains a GBDT on pre-ordered samples with binary labels. When
// cfg.Balanced is set, classes are weighted inversely to their frequency,
// mirroring the class-imbalance compensation used during training.
func Fit(samples []Sample, labels []int, cfg FitConfig) (*GBDT, error) {
	cfg = cfg.withDefaults()
	if len(samples) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("got %d samples but %d labels", len(samples), len(labels))
	}

	features := samples[0].Names
	cols, err := buildColumns(samples, features)
	if err != nil {
		return nil, err
	}

	n := len(samples)
	weights := make([]float64, n)
	var pos int
	for _, y := range labels {
		if y == 1 {
			pos++
		}
	}
	neg := n - pos
	for i, y := range labels {
		weights[i] = 1.0
		if cfg.Balanced && pos > 0 && neg > 0 {
			if y == 1 {
				weights[i] = float64(n) / (2.0 * float64(pos))
			} else {
				weights[i] = float64(n) / (2.0 * float64(neg))
			}
		}
	}

	var sumWY, sumW float64
	for i, y := range labels {
		sumWY += weights[i] * float64(y)
		sumW += weights[i]
	}
	prior := clampProb(sumWY / sumW)
	model := &GBDT{
		Base:         math.Log(prior / (1.0 - prior)),
		LearningRate: cfg.LearningRate,
		Features:     append([]string(nil), features...),
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = model.Base
	}

	st := &fitState{
		cfg:  cfg,
		cols: cols,
		grad: make([]float64, n),
		hess: make([]float64, n),
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for round := 0; round < cfg.Rounds; round++ {
		for i := range all {
			p := sigmoid(score[i])
			st.grad[i] = weights[i] * (p - float64(labels[i]))
			st.hess[i] = weights[i] * p * (1.0 - p)
		}
		root := st.buildNode(all, 0)
		model.Trees = append(model.Trees, root)
		for _, i := range all {
			score[i] += cfg.LearningRate * root.eval(rowValues(st.cols, i))
		}
	}
	return model, nil
}

func buildColumns(samples []Sample, features []string) ([]column, error) {
	cols := make([]column, len(features))
	for j := range features {
		isCat := samples[0].Values[j].IsCat
		cols[j].isCat = isCat
		if isCat {
			cols[j].cats = make([]string, len(samples))
		} else {
			cols[j].nums = make([]float64, len(samples))
		}
		for i, s := range samples {
			if len(s.Values) != len(features) {
				return nil, fmt.Errorf("sample %d has %d values, expected %d", i, len(s.Values), len(features))
			}
			v := s.Values[j]
			if v.IsCat != isCat {
				return nil, fmt.Errorf("feature %q mixes categorical and numeric values", features[j])
			}
			if isCat {
				cols[j].cats[i] = v.Cat
			} else {
				cols[j].nums[i] = v.Num
			}
		}
	}
	return cols, nil
}

func rowValues(cols []column, i int) []Value {
	vals := make([]Value, len(cols))
	for j, c := range cols {
		if c.isCat {
			vals[j] = Cat(c.cats[i])
		} else {
			vals[j] = Num(c.nums[i])
		}
	}
	return vals
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	cats      []string
	left      []int
	right     []int
}

func (st *fitState) buildNode(idx []int, depth int) *Node {
	var g, h float64
	for _, i := range idx {
		g += st.grad[i]
		h += st.hess[i]
	}
	leaf := &Node{Leaf: true, Value: -g / (h + st.cfg.Lambda)}
	if depth >= st.cfg.MaxDepth || len(idx) < 2*st.cfg.MinLeaf {
		return leaf
	}

	parent := scoreTerm(g, h, st.cfg.Lambda)
	var best *split
	for j := range st.cols {
		var s *split
		if st.cols[j].isCat {
			s = st.bestCategoricalSplit(idx, j, parent)
		} else {
			s = st.bestNumericSplit(idx, j, parent)
		}
		if s != nil && (best == nil || s.gain > best.gain) {
			best = s
		}
	}
	if best == nil || best.gain <= 1e-9 {
		return leaf
	}
	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Cats:      best.cats,
		Left:      st.buildNode(best.left, depth+1),
		Right:     st.buildNode(best.right, depth+1),
	}
}

func scoreTerm(g, h, lambda float64) float64 {
	return (g * g) / (h + lambda)
}

func (st *fitState) bestNumericSplit(idx []int, j int, parent float64) *split {
	nums := st.cols[j].nums
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool { return nums[order[a]] < nums[order[b]] })

	var g, h float64
	for _, i := range order {
		g += st.grad[i]
		h += st.hess[i]
	}

	var best *split
	var gl, hl float64
	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		gl += st.grad[i]
		hl += st.hess[i]
		if nums[order[k]] == nums[order[k+1]] {
			continue
		}
		if k+1 < st.cfg.MinLeaf || len(order)-(k+1) < st.cfg.MinLeaf {
			continue
		}
		gain := 0.5 * (scoreTerm(gl, hl, st.cfg.Lambda) + scoreTerm(g-gl, h-hl, st.cfg.Lambda) - parent)
		if best == nil || gain > best.gain {
			best = &split{
				gain:      gain,
				feature:   j,
				threshold: (nums[order[k]] + nums[order[k+1]]) / 2.0,
				left:      append([]int(nil), order[:k+1]...),
				right:     append([]int(nil), order[k+1:]...),
			}
		}
	}
	return best
}

func (st *fitState) bestCategoricalSplit(idx []int, j int, parent float64) *split {
	cats := st.cols[j].cats
	type catStat struct {
		cat   string
		g, h  float64
		count int
	}
	stats := make(map[string]*catStat)
	var g, h float64
	for _, i := range idx {
		c := cats[i]
		s, ok := stats[c]
		if !ok {
			s = &catStat{cat: c}
			stats[c] = s
		}
		s.g += st.grad[i]
		s.h += st.hess[i]
		s.count++
		g += st.grad[i]
		h += st.hess[i]
	}
	if len(stats) < 2 {
		return nil
	}

	// Order categories by their Newton leaf value, then scan prefix subsets.
	// This is the standard one-dimensional reduction for categorical splits.
	ordered := make([]*catStat, 0, len(stats))
	for _, s := range stats {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(a, b int) bool {
		va := ordered[a].g / (ordered[a].h + st.cfg.Lambda)
		vb := ordered[b].g / (ordered[b].h + st.cfg.Lambda)
		if va == vb {
			return ordered[a].cat < ordered[b].cat
		}
		return va < vb
	})

	var best *split
	var gl, hl float64
	var leftCount int
	for k := 0; k < len(ordered)-1; k++ {
		gl += ordered[k].g
		hl += ordered[k].h
		leftCount += ordered[k].count
		if leftCount < st.cfg.MinLeaf || len(idx)-leftCount < st.cfg.MinLeaf {
			continue
		}
		gain := 0.5 * (scoreTerm(gl, hl, st.cfg.Lambda) + scoreTerm(g-gl, h-hl, st.cfg.Lambda) - parent)
		if best == nil || gain > best.gain {
			leftCats := make([]string, 0, k+1)
			for _, s := range ordered[:k+1] {
				leftCats = append(leftCats, s.cat)
			}
			sort.Strings(leftCats)
			best = &split{gain: gain, feature: j, cats: leftCats}
		}
	}
	if best == nil {
		return nil
	}
	for _, i := range idx {
		if containsCat(best.cats, cats[i]) {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	return best
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1.0-eps {
		return 1.0 - eps
	}
	return p
}
