// Package datasets provides built-in tabular datasets and a numeric CSV loader.
package datasets

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownDataset is returned when a built-in dataset name is not registered
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrNoData is returned when a source holds no data rows
	ErrNoData = errors.New("dataset has no rows")

	// ErrMalformedRecord is returned when a CSV record cannot be parsed
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidOptions is returned when CSVOptions cannot describe any table
	ErrInvalidOptions = errors.New("invalid CSV options")
)

// Dataset is a numeric feature matrix with optional class labels
type Dataset struct {
	Name         string
	Data         *mat.Dense
	Target       []int    // Class index per row, nil when unlabelled
	FeatureNames []string // One per column of Data
	TargetNames  []string // Indexed by Target values
}

// Dims returns the number of samples and features
func (d *Dataset) Dims() (samples, features int) {
	return d.Data.Dims()
}

var builtins = map[string]func() (*Dataset, error){
	"iris": LoadIris,
}

// Names lists the built-in datasets
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns a built-in dataset by name
func Load(name string) (*Dataset, error) {
	loader, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDataset, name, Names())
	}
	return loader()
}
