// Package classifier provides the local symptom classifier: a multinomial
// linear model over TF-IDF features, trained on the labeled corpus bundled
// with the binary. It runs entirely in-process.
package classifier

import (
	"math"
	"sort"

	"medcouncil/internal/index"
)

// ClassProbability is one entry of the descending probability list.
type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Classification is the structured prediction result.
type Classification struct {
	Category      string             `json:"category"`
	Label         string             `json:"label"`
	Severity      string             `json:"severity"`
	Confidence    float64            `json:"confidence"`
	Description   string             `json:"description"`
	Action        string             `json:"action"`
	Probabilities []ClassProbability `json:"probabilities"`
}

const (
	maxFeatures = 2048
	epochs      = 400
	learnRate   = 1.0
	l2Penalty   = 1e-3
)

// Classifier is a trained multinomial logistic model. Immutable after New.
type Classifier struct {
	vectorizer *index.Vectorizer
	classes    []string
	weights    [][]float64 // one dense row per class
	bias       []float64
}

// New trains the classifier on the bundled corpus. Training is full-batch
// gradient descent from zero weights, so results are deterministic.
func New() *Classifier {
	texts := make([]string, len(trainingData))
	labels := make([]string, len(trainingData))
	for i, ex := range trainingData {
		texts[i] = ex.text
		labels[i] = ex.category
	}

	vz := index.NewVectorizer(maxFeatures)
	vz.Fit(texts)

	classSet := map[string]bool{}
	for _, l := range labels {
		classSet[l] = true
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	features := make([]index.Vector, len(texts))
	targets := make([]int, len(texts))
	for i, t := range texts {
		features[i] = vz.Transform(t)
		targets[i] = classIdx[labels[i]]
	}

	// Balanced class weights: n / (numClasses * count(class)).
	counts := make([]float64, len(classes))
	for _, y := range targets {
		counts[y]++
	}
	sampleWeight := make([]float64, len(texts))
	n := float64(len(texts))
	for i, y := range targets {
		sampleWeight[i] = n / (float64(len(classes)) * counts[y])
	}

	c := &Classifier{
		vectorizer: vz,
		classes:    classes,
		weights:    make([][]float64, len(classes)),
		bias:       make([]float64, len(classes)),
	}
	dim := vz.VocabSize()
	for i := range c.weights {
		c.weights[i] = make([]float64, dim)
	}
	c.train(features, targets, sampleWeight)
	return c
}

func (c *Classifier) train(features []index.Vector, targets []int, sampleWeight []float64) {
	numClasses := len(c.classes)
	n := float64(len(features))

	gradW := make([][]float64, numClasses)
	for i := range gradW {
		gradW[i] = make([]float64, len(c.weights[i]))
	}
	gradB := make([]float64, numClasses)

	for epoch := 0; epoch < epochs; epoch++ {
		for k := range gradW {
			for j := range gradW[k] {
				gradW[k][j] = 0
			}
			gradB[k] = 0
		}

		for i, x := range features {
			probs := c.softmax(x)
			for k := 0; k < numClasses; k++ {
				delta := probs[k]
				if k == targets[i] {
					delta -= 1
				}
				delta *= sampleWeight[i]
				for _, e := range x {
					gradW[k][e.Col] += delta * e.Weight
				}
				gradB[k] += delta
			}
		}

		for k := 0; k < numClasses; k++ {
			for j := range c.weights[k] {
				c.weights[k][j] -= learnRate * (gradW[k][j]/n + l2Penalty*c.weights[k][j])
			}
			c.bias[k] -= learnRate * gradB[k] / n
		}
	}
}

func (c *Classifier) softmax(x index.Vector) []float64 {
	scores := make([]float64, len(c.classes))
	for k := range c.classes {
		s := c.bias[k]
		for _, e := range x {
			s += c.weights[k][e.Col] * e.Weight
		}
		scores[k] = s
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for k, s := range scores {
		scores[k] = math.Exp(s - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores
}

// Predict classifies arbitrary symptom text. It never fails: empty or
// out-of-vocabulary input falls back to the model priors.
func (c *Classifier) Predict(text string) Classification {
	probs := c.softmax(c.vectorizer.Transform(text))

	best := 0
	for k := range probs {
		if probs[k] > probs[best] {
			best = k
		}
	}
	category := c.classes[best]
	info := categoryInfo[category]

	ordered := make([]ClassProbability, len(c.classes))
	for k, class := range c.classes {
		ordered[k] = ClassProbability{Label: categoryInfo[class].Label, Probability: probs[k]}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Probability > ordered[j].Probability
	})

	return Classification{
		Category:      category,
		Label:         info.Label,
		Severity:      info.Severity,
		Confidence:    probs[best],
		Description:   info.Description,
		Action:        info.Action,
		Probabilities: ordered,
	}
}

// Classes returns the training labels in sorted order.
func (c *Classifier) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}
