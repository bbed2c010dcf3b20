package geom

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a Selig-format .dat file: an optional name line followed by
// one "x y" pair per line. Blank lines and '#' comments are skipped.
func Load(path string) (*Foil, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open foil file: %w", err)
	}
	defer file.Close()

	var (
		name string
		xs   []float64
		ys   []float64
	)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		x, errX := strconv.ParseFloat(fields[0], 64)
		var y float64
		var errY error
		if len(fields) >= 2 {
			y, errY = strconv.ParseFloat(fields[1], 64)
		}
		if len(fields) < 2 || errX != nil || errY != nil {
			// The first non-numeric line is the foil name.
			if name == "" && len(xs) == 0 {
				name = line
				continue
			}
			return nil, fmt.Errorf("%s:%d: malformed coordinate line %q", path, lineNo, line)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foil file: %w", err)
	}

	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(strings.TrimSuffix(base, ".dat"), ".DAT")
	}
	return NewFoil(name, xs, ys)
}

// Save writes the foil in Selig format: name line, then one coordinate
// pair per line.
func (f *Foil) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create foil file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, f.Name)
	for i := range f.X {
		fmt.Fprintf(w, " %9.6f  %9.6f\n", f.X[i], f.Y[i])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write foil file: %w", err)
	}
	return nil
}
