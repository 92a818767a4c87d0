package sweep

// Reshape transposes instrument rows into sweeps so that
// m[i][j] == rows[j][i]. The reader stores one row per acquisition
// channel with one column per trial; the matrix holds one sweep per trial.
func Reshape(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ShapeError{Reason: "recording has no samples"}
	}

	width := len(rows[0])
	for j, row := range rows {
		if len(row) != width {
			return nil, &ShapeError{Row: j, Want: width, Got: len(row)}
		}
	}

	m := make(Matrix, width)
	for i := range m {
		s := make(Sweep, len(rows))
		for j, row := range rows {
			s[j] = row[i]
		}
		m[i] = s
	}
	return m, nil
}
