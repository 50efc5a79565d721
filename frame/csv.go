package frame

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteCSV writes the frame with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.cols); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, row := range f.rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// WriteFile writes the frame as CSV to path, creating parent directories.
func (f *Frame) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating csv file")
	}
	defer file.Close()
	return f.WriteCSV(file)
}

// ReadCSV reads a frame from CSV. The first record is the header; empty or
// duplicate header fields are rejected.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrap(err, "validating header")
	}
	f := New(header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading row")
		}
		row := f.Append()
		for i, v := range rec {
			if i < len(header) {
				f.Set(row, header[i], v)
			}
		}
	}
}

// ReadFile reads a CSV file into a frame.
func ReadFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%v'", path)
	}
	defer file.Close()
	return ReadCSV(file)
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}
