package params

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	impedance "github.com/milosgajdos/go-impedance"
	"gonum.org/v1/gonum/mat"
)

// Source locates parameter files
type Source struct {
	// Stiffness is path to stiffness matrix file
	Stiffness string
	// Damping is path to damping matrix file
	Damping string
	// Inertia is path to inertia matrix file
	Inertia string
	// Coefficients is path to coefficient vector file
	Coefficients string
}

// Load loads Params from files in src using the scheme selected by dim.
// DimMatrices reads the three matrix files, DimCoefficients reads the coefficient file.
func Load(dim ControlDim, src Source, opts ...Option) (*Params, error) {
	switch dim {
	case DimMatrices:
		return LoadFiles(src.Stiffness, src.Damping, src.Inertia, opts...)
	case DimCoefficients:
		a, err := LoadCoefficients(src.Coefficients)
		if err != nil {
			return nil, err
		}
		return FromCoefficients(a, opts...)
	default:
		return nil, fmt.Errorf("unsupported control dimension: %v", dim)
	}
}

// LoadFiles loads K, C and M matrices from CSV files and returns validated Params.
func LoadFiles(kPath, cPath, mPath string, opts ...Option) (*Params, error) {
	K, err := LoadMatrix(kPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stiffness: %w", err)
	}

	C, err := LoadMatrix(cPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load damping: %w", err)
	}

	M, err := LoadMatrix(mPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load inertia: %w", err)
	}

	return New(K, C, M, opts...)
}

// LoadMatrix reads Dof x Dof matrix from CSV file stored in path.
// It returns ShapeError if the file does not store Dof x Dof matrix.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r, c := m.Dims()
	if r != impedance.Dof || c != impedance.Dof {
		return nil, &impedance.ShapeError{Name: path, Rows: r, Cols: c, WantRows: impedance.Dof, WantCols: impedance.Dof}
	}

	return m, nil
}

// LoadCoefficients reads coefficient vector from file stored in path.
// Coefficients may be split over any number of lines.
func LoadCoefficients(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readRecords(f, -1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var a []float64
	for _, row := range rows {
		a = append(a, row...)
	}

	return a, nil
}

// ReadMatrix reads comma separated matrix rows from r, one row per line.
// Lines starting with # are ignored. Every row must have the same number of columns.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	rows, err := readRecords(r, 0)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols || cols == 0 {
			return nil, fmt.Errorf("record %d: invalid number of columns: %d, expected: %d", i+1, len(row), cols)
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

// readRecords parses CSV records from r as floats.
// perRecord has the same meaning as csv.Reader.FieldsPerRecord.
func readRecords(r io.Reader, perRecord int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = perRecord

	var rows [][]float64
	for rec := 1; ; rec++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]float64, 0, len(fields))
		for _, field := range fields {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", rec, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
