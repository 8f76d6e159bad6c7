package types

type QualityTier string

const (
	QualityTier480p  QualityTier = "480p"
	QualityTier720p  QualityTier = "720p"
	QualityTier1080p QualityTier = "1080p"
	QualityTier4K    QualityTier = "4k"
)

type KaraokeMode string

const (
	KaraokeModeNone       KaraokeMode = "none"
	KaraokeModeBackground KaraokeMode = "background"
	KaraokeModeColorScale KaraokeMode = "color_scale"
)

// Size is a width/height pair in pixels (or points for editor space).
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) IsPortrait() bool {
	return s.Height > s.Width
}

// Point is an x/y pair. Overlay offsets are measured from the editor center.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}
