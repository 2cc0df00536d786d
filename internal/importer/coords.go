package importer

// The source coordinate system shifts y by a large constant in two bands.
const (
	upperBandFloor  = 800000
	upperBandOffset = 1000000
	lowerBandFloor  = 400000
	lowerBandOffset = 400000
)

// NormalizeY maps a raw source y coordinate into model space. x needs no
// correction.
func NormalizeY(y float64) float64 {
	switch {
	case y > upperBandFloor:
		return y - upperBandOffset
	case y > lowerBandFloor:
		return y - lowerBandOffset
	default:
		return y
	}
}
