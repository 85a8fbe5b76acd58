package pagination

const (
	// DefaultLimit is the sale history page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many sales one history request can pull from the PDV API.
	MaxLimit = 500
)

// Limits carries per-endpoint defaults so callers can override the package constants.
type Limits struct {
	Default int
	Max     int
}

// NormalizeLimit enforces the package default and maximum limits.
func NormalizeLimit(limit int) int {
	return Limits{Default: DefaultLimit, Max: MaxLimit}.Normalize(limit)
}

// Normalize clamps limit into (0, Max], substituting Default for non-positive values.
func (l Limits) Normalize(limit int) int {
	def, max := l.Default, l.Max
	if max <= 0 {
		max = MaxLimit
	}
	if def <= 0 || def > max {
		def = max
		if DefaultLimit < max {
			def = DefaultLimit
		}
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
