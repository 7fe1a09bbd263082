package domain

// Ordering sorts paths in place. Implementations must be stable so ties keep
// discovery order. A key failure aborts the sort and is returned wrapped
// with the offending path.
type Ordering interface {
	Sort(paths []string) error
}
