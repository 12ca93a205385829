package model

import "errors"

// ErrShapeMismatch reports that two matrices or a matrix and a weight vector
// disagree on dimensions. It always indicates a bug or an artifact mismatch
// and is never repaired by truncation or padding.
var ErrShapeMismatch = errors.New("shape mismatch")
