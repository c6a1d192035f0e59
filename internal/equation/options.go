package equation

// DefaultTolerance is the absolute tolerance used when comparing a tracked
// stoichiometry against the remaining stoichiometry of a participant.
const DefaultTolerance = 1e-9

// Option configures a Builder.
type Option func(*Builder)

// WithTolerance sets the stoichiometry comparison tolerance. Zero selects
// exact floating-point equality.
func WithTolerance(tol float64) Option {
	return func(b *Builder) {
		if tol >= 0 {
			b.tolerance = tol
		}
	}
}
