package preprocess

const (
	NormalizeEps = 1e-9

	DefaultClipIQRFactor = 3.0
)
