package datasets

import (
	"bytes"
	_ "embed"
	"fmt"
)

//go:embed data/iris.csv
var irisCSV []byte

// LoadIris returns Fisher's Iris dataset: 150 samples, 4 features, 3 classes.
func LoadIris() (*Dataset, error) {
	ds, err := LoadCSV(bytes.NewReader(irisCSV), CSVOptions{
		Header:      true,
		LabelColumn: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded iris data: %w", err)
	}
	ds.Name = "iris"
	return ds, nil
}
