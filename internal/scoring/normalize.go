package scoring

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedInput means a numeric field was present but unusable.
	ErrMalformedInput = errors.New("malformed attempt result")
	// ErrNoScore means the result carried nothing to score.
	ErrNoScore = errors.New("attempt result has no score")
)

// Normalized is the canonical view of one attempt.
type Normalized struct {
	Percentage     int        `json:"percentage"`
	Bucket         Bucket     `json:"bucket"`
	Label          string     `json:"label"`
	Color          string     `json:"color"`
	NextDifficulty Difficulty `json:"nextDifficulty"`
	Passed         bool       `json:"passed"`

	// Defaulted is set when Percentage is 0 because the input could not be
	// scored, as opposed to a genuine zero.
	Defaulted bool   `json:"defaulted,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Percentage derives the canonical integer percentage in [0,100].
//
// An explicit total of zero is a valid 0. With a positive total and a known
// correct count the result is correct/total rounded half up. Otherwise a
// standalone score is read as a fraction when <= 1 and as a percentage when
// <= 100.
func Percentage(r AttemptResult) (int, error) {
	malformed := false

	total, hasTotal := r.totalField()
	if hasTotal {
		switch {
		case !total.Valid || total.Value < 0:
			malformed = true
		case total.Value == 0:
			return 0, nil
		default:
			if c, ok := r.correctField(); ok {
				if c.Valid {
					return percent(c.Value / total.Value * 100), nil
				}
				malformed = true
			}
		}
	}

	if s, ok := r.standaloneField(); ok {
		if !s.Valid || s.Value < 0 {
			return 0, fmt.Errorf("%w: score %v", ErrMalformedInput, s.Value)
		}
		switch {
		case s.Value <= 1:
			return percent(s.Value * 100), nil
		case s.Value <= MaxPercentage:
			return percent(s.Value), nil
		}
		return 0, fmt.Errorf("%w: score %v out of range", ErrMalformedInput, s.Value)
	}

	if malformed {
		return 0, ErrMalformedInput
	}
	return 0, ErrNoScore
}

// percent rounds half up, clamping in float space first so huge ratios
// cannot overflow the int conversion.
func percent(x float64) int {
	switch {
	case x <= MinPercentage:
		return MinPercentage
	case x >= MaxPercentage:
		return MaxPercentage
	}
	return int(math.Floor(x + 0.5))
}

func clamp(p int) int {
	if p < MinPercentage {
		return MinPercentage
	}
	if p > MaxPercentage {
		return MaxPercentage
	}
	return p
}

// Normalizer options

type Option func(*config)

type config struct {
	scheme        Scheme
	ladder        Ladder
	passThreshold int
}

func WithScheme(s Scheme) Option     { return func(c *config) { c.scheme = s } }
func WithLadder(l Ladder) Option     { return func(c *config) { c.ladder = l } }
func WithPassThreshold(n int) Option { return func(c *config) { c.passThreshold = n } }

// Normalizer turns raw attempt results into Normalized values. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	cfg config
}

// New builds a Normalizer with the canonical scheme and ladder unless
// overridden.
func New(opts ...Option) (*Normalizer, error) {
	cfg := config{
		scheme:        FourBand(),
		ladder:        DefaultLadder(),
		passThreshold: PassThreshold,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.scheme.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ladder.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{cfg: cfg}, nil
}

// Default uses the canonical four-band scheme.
var Default = func() *Normalizer {
	n, err := New()
	if err != nil {
		panic(err)
	}
	return n
}()

func (n *Normalizer) Scheme() Scheme     { return n.cfg.scheme }
func (n *Normalizer) Ladder() Ladder     { return n.cfg.ladder }
func (n *Normalizer) PassThreshold() int { return n.cfg.passThreshold }

// Classify maps an already computed percentage.
func (n *Normalizer) Classify(pct int) Normalized {
	pct = clamp(pct)
	band := n.cfg.scheme.Classify(pct)
	return Normalized{
		Percentage:     pct,
		Bucket:         band.Bucket,
		Label:          band.Label,
		Color:          band.Color,
		NextDifficulty: n.cfg.ladder.For(pct),
		Passed:         pct >= n.cfg.passThreshold,
	}
}

// Normalize never fails: unusable input becomes a defaulted 0.
func (n *Normalizer) Normalize(r AttemptResult) Normalized {
	pct, err := Percentage(r)
	out := n.Classify(pct)
	if err != nil {
		out.Defaulted = true
		out.Reason = err.Error()
	}
	return out
}

// Normalize uses the Default normalizer.
func Normalize(r AttemptResult) Normalized { return Default.Normalize(r) }
