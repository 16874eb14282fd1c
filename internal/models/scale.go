package models

// Scale is a musical key pair understood by the music model
type Scale string

const (
	ScaleCMajorAMinor         Scale = "C_MAJOR_A_MINOR"
	ScaleDFlatMajorBFlatMinor Scale = "D_FLAT_MAJOR_B_FLAT_MINOR"
	ScaleDMajorBMinor         Scale = "D_MAJOR_B_MINOR"
	ScaleEFlatMajorCMinor     Scale = "E_FLAT_MAJOR_C_MINOR"
	ScaleEMajorDFlatMinor     Scale = "E_MAJOR_D_FLAT_MINOR"
	ScaleFMajorDMinor         Scale = "F_MAJOR_D_MINOR"
	ScaleGFlatMajorEFlatMinor Scale = "G_FLAT_MAJOR_E_FLAT_MINOR"
	ScaleGMajorEMinor         Scale = "G_MAJOR_E_MINOR"
	ScaleAFlatMajorFMinor     Scale = "A_FLAT_MAJOR_F_MINOR"
	ScaleAMajorGFlatMinor     Scale = "A_MAJOR_G_FLAT_MINOR"
	ScaleBFlatMajorGMinor     Scale = "B_FLAT_MAJOR_G_MINOR"
	ScaleBMajorAFlatMinor     Scale = "B_MAJOR_A_FLAT_MINOR"
	ScaleUnspecified          Scale = "SCALE_UNSPECIFIED"
)

var scales = []struct {
	scale Scale
	name  string
}{
	{ScaleCMajorAMinor, "C major / A minor"},
	{ScaleDFlatMajorBFlatMinor, "D♭ major / B♭ minor"},
	{ScaleDMajorBMinor, "D major / B minor"},
	{ScaleEFlatMajorCMinor, "E♭ major / C minor"},
	{ScaleEMajorDFlatMinor, "E major / C♯/D♭ minor"},
	{ScaleFMajorDMinor, "F major / D minor"},
	{ScaleGFlatMajorEFlatMinor, "G♭ major / E♭ minor"},
	{ScaleGMajorEMinor, "G major / E minor"},
	{ScaleAFlatMajorFMinor, "A♭ major / F minor"},
	{ScaleAMajorGFlatMinor, "A major / F♯/G♭ minor"},
	{ScaleBFlatMajorGMinor, "B♭ major / G minor"},
	{ScaleBMajorAFlatMinor, "B major / G♯/A♭ minor"},
	{ScaleUnspecified, "Default / The model decides"},
}

// Scales returns every known scale in circle order, unspecified last
func Scales() []Scale {
	out := make([]Scale, 0, len(scales))
	for _, s := range scales {
		out = append(out, s.scale)
	}
	return out
}

// Valid reports whether s is a known scale
func (s Scale) Valid() bool {
	for _, known := range scales {
		if known.scale == s {
			return true
		}
	}
	return false
}

// DisplayName returns the human readable key pair
func (s Scale) DisplayName() string {
	for _, known := range scales {
		if known.scale == s {
			return known.name
		}
	}
	return string(s)
}
