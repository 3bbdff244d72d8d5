package workload

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SampleContext describes who is asking for a sample.
type SampleContext struct {
	Node string  // requesting node name
	Now  float64 // virtual time of the request
}

// Distribution produces durations for inter-arrival and service times.
// Implementations should return finite, non-negative values; consumers treat
// anything else as a fatal configuration error.
type Distribution interface {
	Sample(ctx SampleContext) float64
}

// DistributionFunc adapts an ordinary function to the Distribution interface.
type DistributionFunc func(ctx SampleContext) float64

// Sample implements Distribution.
func (f DistributionFunc) Sample(ctx SampleContext) float64 { return f(ctx) }

// Constant always returns the same value.
type Constant struct {
	Value float64
}

// Sample implements Distribution.
func (c Constant) Sample(_ SampleContext) float64 { return c.Value }

// randSampler draws from any gonum univariate distribution.
type randSampler struct {
	dist interface{ Rand() float64 }
}

func (s *randSampler) Sample(_ SampleContext) float64 {
	return s.dist.Rand()
}

// Exponential returns an exponential distribution with the given rate (mean 1/rate).
func Exponential(rate float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.Exponential{Rate: rate, Src: rng}}
}

// Normal returns a normal distribution. Draws may be negative for small means;
// the consuming node rejects those.
func Normal(mean, stdDev float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.Normal{Mu: mean, Sigma: stdDev, Src: rng}}
}

// Gamma returns a gamma distribution with the given shape and rate.
func Gamma(shape, rate float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.Gamma{Alpha: shape, Beta: rate, Src: rng}}
}

// LogNormal returns a distribution whose logarithm is Normal(mu, sigma).
func LogNormal(mu, sigma float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.LogNormal{Mu: mu, Sigma: sigma, Src: rng}}
}

// Weibull returns a Weibull distribution with shape k and scale lambda.
func Weibull(shape, scale float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.Weibull{K: shape, Lambda: scale, Src: rng}}
}

// Uniform returns a uniform distribution over [min, max].
func Uniform(min, max float64, rng *rand.Rand) Distribution {
	return &randSampler{dist: distuv.Uniform{Min: min, Max: max, Src: rng}}
}

// distParams lists the required parameters of every distribution type.
var distParams = map[string][]string{
	"exponential": {"rate"},
	"normal":      {"mean", "std_dev"},
	"gamma":       {"shape", "rate"},
	"lognormal":   {"mu", "sigma"},
	"weibull":     {"shape", "scale"},
	"uniform":     {"min", "max"},
	"constant":    {"value"},
}

// IsValidDistType reports whether name is a known distribution type.
func IsValidDistType(name string) bool {
	_, ok := distParams[name]
	return ok
}

// requireParam checks that all required keys exist in a params map and are finite.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %q must be a finite number, got %f", k, v)
		}
	}
	return nil
}

func requirePositive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("parameter %q must be positive, got %f", name, v)
	}
	return nil
}

// CheckDistSpec verifies a DistSpec without building it: the type is known, every
// required parameter is present and finite, and the per-type ranges hold.
func CheckDistSpec(spec DistSpec) error {
	keys, ok := distParams[spec.Type]
	if !ok {
		return fmt.Errorf("unknown distribution type %q; valid: constant, exponential, gamma, lognormal, normal, uniform, weibull", spec.Type)
	}
	if err := requireParam(spec.Params, keys...); err != nil {
		return fmt.Errorf("%s: %w", spec.Type, err)
	}
	p := spec.Params

	switch spec.Type {
	case "exponential":
		return requirePositive("rate", p["rate"])
	case "normal":
		if p["std_dev"] < 0 {
			return fmt.Errorf("parameter \"std_dev\" must be non-negative, got %f", p["std_dev"])
		}
	case "gamma":
		if err := requirePositive("shape", p["shape"]); err != nil {
			return err
		}
		return requirePositive("rate", p["rate"])
	case "lognormal":
		return requirePositive("sigma", p["sigma"])
	case "weibull":
		if err := requirePositive("shape", p["shape"]); err != nil {
			return err
		}
		return requirePositive("scale", p["scale"])
	case "uniform":
		if p["max"] < p["min"] {
			return fmt.Errorf("uniform max (%f) must be >= min (%f)", p["max"], p["min"])
		}
	}
	return nil
}

// NewDistribution creates a Distribution from a DistSpec, drawing from rng.
func NewDistribution(spec DistSpec, rng *rand.Rand) (Distribution, error) {
	if err := CheckDistSpec(spec); err != nil {
		return nil, err
	}
	p := spec.Params

	switch spec.Type {
	case "exponential":
		return Exponential(p["rate"], rng), nil
	case "normal":
		return Normal(p["mean"], p["std_dev"], rng), nil
	case "gamma":
		return Gamma(p["shape"], p["rate"], rng), nil
	case "lognormal":
		return LogNormal(p["mu"], p["sigma"], rng), nil
	case "weibull":
		return Weibull(p["shape"], p["scale"], rng), nil
	case "uniform":
		return Uniform(p["min"], p["max"], rng), nil
	default: // constant
		return Constant{Value: p["value"]}, nil
	}
}
