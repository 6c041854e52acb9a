package filter

// FiltFilt runs the filter forward and backward over x so the output has no
// phase shift. Edges are extended by odd reflection and every section starts
// from its steady state for the first sample. Inputs not longer than
// PadLen are returned as an unmodified copy.
func (f *Butterworth) FiltFilt(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	copy(out, x)
	if n <= f.padLen {
		return out
	}

	ext := oddExtend(x, f.padLen)
	zi := f.initialState()

	y := f.filter(ext, zi, ext[0])
	reverse(y)
	y = f.filter(y, zi, y[0])
	reverse(y)

	copy(out, y[f.padLen:f.padLen+n])
	return out
}

// FiltFiltChannels filters every column of a sample-major matrix
// independently, for example the axes of an accelerometer stream.
func (f *Butterworth) FiltFiltChannels(rows [][]float64) [][]float64 {
	res := make([][]float64, len(rows))
	cols := 0
	for i, row := range rows {
		res[i] = make([]float64, len(row))
		copy(res[i], row)
		cols = max(cols, len(row))
	}

	for c := 0; c < cols; c++ {
		column := make([]float64, 0, len(rows))
		for _, row := range rows {
			if c < len(row) {
				column = append(column, row[c])
			}
		}
		// ragged rows would misalign the axis, leave it as is
		if len(column) != len(rows) {
			continue
		}
		filtered := f.FiltFilt(column)
		for i := range res {
			res[i][c] = filtered[i]
		}
	}
	return res
}

// initialState is the per-section delay line for a unit step that has
// already settled, scaled by the DC gain of the preceding sections.
func (f *Butterworth) initialState() [][2]float64 {
	zi := make([][2]float64, len(f.sections))
	scale := 1.0
	for i, s := range f.sections {
		sumA := s.a[0] + s.a[1] + s.a[2]
		kdc := (s.b[0] + s.b[1] + s.b[2]) / sumA
		d1 := s.b[2] - kdc*s.a[2]
		d0 := s.b[1] - kdc*s.a[1] + d1
		zi[i] = [2]float64{d0 * scale, d1 * scale}
		scale *= kdc
	}
	return zi
}

func (f *Butterworth) filter(x []float64, zi [][2]float64, x0 float64) []float64 {
	state := make([][2]float64, len(zi))
	for i := range zi {
		state[i] = [2]float64{zi[i][0] * x0, zi[i][1] * x0}
	}

	y := make([]float64, len(x))
	for n, v := range x {
		for i, s := range f.sections {
			out := s.b[0]*v + state[i][0]
			state[i][0] = s.b[1]*v - s.a[1]*out + state[i][1]
			state[i][1] = s.b[2]*v - s.a[2]*out
			v = out
		}
		y[n] = v
	}
	return y
}

func oddExtend(x []float64, padLen int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*padLen)
	for i := padLen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= padLen; i++ {
		ext = append(ext, 2*x[n-1]-x[n-1-i])
	}
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// Bandpass designs and applies a zero-phase bandpass filter in one call.
func Bandpass(x []float64, fs, low, high float64, order int) ([]float64, error) {
	f, err := NewButterworth(KindBandpass, fs, order, low, high)
	if err != nil {
		return nil, err
	}
	return f.FiltFilt(x), nil
}

func Highpass(x []float64, fs, cutoff float64, order int) ([]float64, error) {
	f, err := NewButterworth(KindHighpass, fs, order, cutoff)
	if err != nil {
		return nil, err
	}
	return f.FiltFilt(x), nil
}

func Lowpass(x []float64, fs, cutoff float64, order int) ([]float64, error) {
	f, err := NewButterworth(KindLowpass, fs, order, cutoff)
	if err != nil {
		return nil, err
	}
	return f.FiltFilt(x), nil
}
