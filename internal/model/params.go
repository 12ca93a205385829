package model

import "time"

// NumericParams holds the fitted imputer and scaler statistics, one entry
// per feature in Features order.
type NumericParams struct {
	Features []string
	Medians  []float64
	Means    []float64
	Stds     []float64
}

// Width is the number of numeric output columns.
func (p *NumericParams) Width() int {
	return len(p.Features)
}

// CategoricalParams holds the fitted imputer modes and encoder vocabularies.
// Vocabulary order is one-hot column order.
type CategoricalParams struct {
	Features     []string
	Modes        []string
	Vocabularies [][]string
}

// Width is the total number of one-hot columns.
func (p *CategoricalParams) Width() int {
	n := 0
	for _, v := range p.Vocabularies {
		n += len(v)
	}
	return n
}

// LinearParams is a trained linear classifier: one weight per assembled
// column (numeric columns first) plus a bias.
type LinearParams struct {
	Weights []float64
	Bias    float64
}

// TrainingMetrics mirrors the evaluation summary written by the training job.
type TrainingMetrics struct {
	Accuracy float64 `yaml:"accuracy" json:"accuracy"`
	ROCAUC   float64 `yaml:"roc_auc" json:"roc_auc"`
	NTrain   int     `yaml:"n_train" json:"n_train"`
	NTest    int     `yaml:"n_test" json:"n_test"`
}

// Params is a complete, loaded artifact bundle. It is never mutated after
// the artifact store publishes it.
type Params struct {
	Version     string
	TrainedAt   time.Time
	Metrics     TrainingMetrics
	Numeric     NumericParams
	Categorical CategoricalParams
	Linear      LinearParams
}

// Width is the assembled feature vector length.
func (p *Params) Width() int {
	return p.Numeric.Width() + p.Categorical.Width()
}
