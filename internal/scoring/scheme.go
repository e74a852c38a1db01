package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Bucket string

const (
	BucketPoor         Bucket = "POOR"
	BucketBelowAverage Bucket = "BELOW_AVERAGE"
	BucketAverage      Bucket = "AVERAGE"
	BucketGood         Bucket = "GOOD"
	BucketExcellent    Bucket = "EXCELLENT"
	BucketTop          Bucket = "TOP"
)

func (b Bucket) Known() bool {
	switch b {
	case BucketPoor, BucketBelowAverage, BucketAverage, BucketGood, BucketExcellent, BucketTop:
		return true
	}
	return false
}

// Canonical band boundaries. A percentage p is AVERAGE when
// PassThreshold <= p <= AverageCeiling, GOOD when AverageCeiling < p < ExcellentFloor.
const (
	MinPercentage  = 0
	PassThreshold  = 50
	AverageCeiling = 75
	ExcellentFloor = 90
	MaxPercentage  = 100

	// legacy five-band only
	TopFloor = 96
)

const (
	ColorRed    = "#dc3545"
	ColorOrange = "#fd7e14"
	ColorBlue   = "#0d6efd"
	ColorGreen  = "#28a745"
)

// Band covers every percentage up to and including Max that the previous
// band did not.
type Band struct {
	Bucket Bucket `yaml:"bucket" json:"bucket"`
	Max    int    `yaml:"max" json:"max"`
	Label  string `yaml:"label" json:"label"`
	Color  string `yaml:"color" json:"color"`
}

// Scheme is an ordered partition of [0,100] into display bands.
type Scheme struct {
	Name  string `yaml:"name" json:"name"`
	Bands []Band `yaml:"bands" json:"bands"`
}

const (
	SchemeFourBand = "four-band"
	SchemeFiveBand = "five-band"
)

var (
	ErrUnknownScheme = errors.New("unknown scoring scheme")
	ErrInvalidScheme = errors.New("invalid scoring scheme")
)

// FourBand is the canonical scheme.
func FourBand() Scheme {
	return Scheme{Name: SchemeFourBand, Bands: []Band{
		{Bucket: BucketPoor, Max: PassThreshold - 1, Label: "Needs improvement", Color: ColorRed},
		{Bucket: BucketAverage, Max: AverageCeiling, Label: "Satisfactory", Color: ColorOrange},
		{Bucket: BucketGood, Max: ExcellentFloor - 1, Label: "Good work", Color: ColorBlue},
		{Bucket: BucketExcellent, Max: MaxPercentage, Label: "Outstanding", Color: ColorGreen},
	}}
}

// FiveBand is the legacy quiz-result scheme with a separate TOP band.
func FiveBand() Scheme {
	return Scheme{Name: SchemeFiveBand, Bands: []Band{
		{Bucket: BucketBelowAverage, Max: PassThreshold - 1, Label: "Below average", Color: ColorRed},
		{Bucket: BucketAverage, Max: AverageCeiling, Label: "Average", Color: ColorOrange},
		{Bucket: BucketGood, Max: ExcellentFloor - 1, Label: "Good", Color: ColorBlue},
		{Bucket: BucketExcellent, Max: TopFloor - 1, Label: "Very good", Color: ColorGreen},
		{Bucket: BucketTop, Max: MaxPercentage, Label: "Top 1%", Color: ColorGreen},
	}}
}

// SchemeByName returns one of the built-in schemes. An empty name selects
// the canonical one.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", SchemeFourBand:
		return FourBand(), nil
	case SchemeFiveBand:
		return FiveBand(), nil
	}
	return Scheme{}, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Validate checks that the bands partition [0,100] without gaps or overlaps.
func (s Scheme) Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidScheme)
	}
	prev := MinPercentage - 1
	seen := make(map[Bucket]bool, len(s.Bands))
	for i, b := range s.Bands {
		if !b.Bucket.Known() {
			return fmt.Errorf("%w: band %d: unknown bucket %q", ErrInvalidScheme, i, b.Bucket)
		}
		if seen[b.Bucket] {
			return fmt.Errorf("%w: band %d: duplicate bucket %q", ErrInvalidScheme, i, b.Bucket)
		}
		seen[b.Bucket] = true
		if b.Max <= prev {
			return fmt.Errorf("%w: band %d: upper bound %d not above %d", ErrInvalidScheme, i, b.Max, prev)
		}
		prev = b.Max
	}
	if prev != MaxPercentage {
		return fmt.Errorf("%w: last upper bound is %d, want %d", ErrInvalidScheme, prev, MaxPercentage)
	}
	return nil
}

// Classify returns the band containing pct. Out-of-range values are clamped.
func (s Scheme) Classify(pct int) Band {
	pct = clamp(pct)
	for _, b := range s.Bands {
		if pct <= b.Max {
			return b
		}
	}
	if n := len(s.Bands); n > 0 {
		return s.Bands[n-1]
	}
	return Band{}
}

// ParseScheme decodes and validates a YAML scheme document.
func ParseScheme(data []byte) (Scheme, error) {
	var s Scheme
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scheme{}, fmt.Errorf("%w: %v", ErrInvalidScheme, err)
	}
	if err := s.Validate(); err != nil {
		return Scheme{}, err
	}
	return s, nil
}

// LoadScheme reads a YAML scheme from path.
func LoadScheme(path string) (Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scheme{}, fmt.Errorf("read scheme: %w", err)
	}
	s, err := ParseScheme(data)
	if err != nil {
		return Scheme{}, fmt.Errorf("load scheme %s: %w", path, err)
	}
	return s, nil
}

// SelectScheme loads path when set, otherwise the built-in scheme name.
func SelectScheme(name, path string) (Scheme, error) {
	if path != "" {
		return LoadScheme(path)
	}
	return SchemeByName(name)
}
