package datasets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// NoLabel disables label extraction in CSVOptions
const NoLabel = -1

// CSVOptions controls how LoadCSV interprets its input
type CSVOptions struct {
	Header      bool // First record holds column names
	LabelColumn int  // Zero-based column holding class labels, or NoLabel
	Comma       rune // Field delimiter, ',' when zero
}

// DefaultCSVOptions returns options for a headed, unlabelled, comma-separated file
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Header:      true,
		LabelColumn: NoLabel,
		Comma:       ',',
	}
}

// LoadCSVFile opens path and loads it with LoadCSV. The dataset is named after the file.
func LoadCSVFile(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := LoadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ds, nil
}

// LoadCSV reads a numeric table. Every column other than the label column must
// parse as a float. Labels are mapped to class indices in order of first appearance.
func LoadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if opts.LabelColumn < NoLabel {
		return nil, fmt.Errorf("%w: label column must be %d or a column index, got %d",
			ErrInvalidOptions, NoLabel, opts.LabelColumn)
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		header      []string
		data        []float64
		target      []int
		targetNames []string
		classes     = make(map[string]int)
		width       = -1
		line        = 0
	)

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}

		if opts.LabelColumn >= len(rec) {
			return nil, fmt.Errorf("%w: line %d: label column %d out of range for %d fields",
				ErrMalformedRecord, line, opts.LabelColumn, len(rec))
		}

		if opts.Header && header == nil {
			header = make([]string, 0, len(rec))
			for i, name := range rec {
				if i != opts.LabelColumn {
					header = append(header, strings.TrimSpace(name))
				}
			}
			continue
		}

		features := len(rec)
		if opts.LabelColumn != NoLabel {
			features--
		}
		if width == -1 {
			width = features
		}
		if features != width || features == 0 {
			return nil, fmt.Errorf("%w: line %d: expected %d features, got %d",
				ErrMalformedRecord, line, width, features)
		}

		for i, field := range rec {
			if i == opts.LabelColumn {
				label := strings.TrimSpace(field)
				class, ok := classes[label]
				if !ok {
					class = len(targetNames)
					classes[label] = class
					targetNames = append(targetNames, label)
				}
				target = append(target, class)
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %d: %v", ErrMalformedRecord, line, i, err)
			}
			data = append(data, v)
		}
	}

	if width <= 0 || len(data) == 0 {
		return nil, ErrNoData
	}

	if header != nil && len(header) != width {
		return nil, fmt.Errorf("%w: header names %d features, rows hold %d", ErrMalformedRecord, len(header), width)
	}
	if header == nil {
		header = make([]string, width)
		for i := range header {
			header[i] = "x" + strconv.Itoa(i)
		}
	}

	return &Dataset{
		Data:         mat.NewDense(len(data)/width, width, data),
		Target:       target,
		FeatureNames: header,
		TargetNames:  targetNames,
	}, nil
}
