package main

import (
	"os"
	"strconv"

	"github.com/YuminosukeSato/golgbm/internal/tabular"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// readRows reads a whole delimited numeric file. With labelFirst the first
// column is returned separately.
func readRows(path string, labelFirst bool) (rows [][]float64, labels []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return tabular.ReadAll(f, path, labelFirst)
}

// readColumn reads one number per line, as used for weight files.
func readColumn(path string) ([]float64, error) {
	rows, _, err := readRows(path, false)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != 1 {
			return nil, errors.Newf("%s:%d: expected one value per line", path, i+1)
		}
		out[i] = r[0]
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
