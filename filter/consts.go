package filter

const (
	// MinCutoffHz keeps cutoffs strictly inside (0, Nyquist).
	MinCutoffHz = 1e-3

	// PadFactor times (filter order + 1) samples are mirrored at each edge
	// before forward-backward filtering.
	PadFactor = 3

	DefaultZScoreEps = 1e-9
)
