package storage

import "aligned-dataset/internal/matrix"

// NamedArray is one matrix of a container.
type NamedArray struct {
	Name   string
	Matrix *matrix.Matrix
}

// ArrayReader gives access to the arrays of a container.
type ArrayReader interface {
	// Names lists the arrays in file order.
	Names() []string

	// Array decodes the named array.
	Array(name string) (*matrix.Matrix, error)

	// Close releases the underlying file.
	Close() error
}
