package scraper

// Status tags the result of one pipeline stage.
type Status int

const (
	Succeeded Status = iota
	Failed
	Absent
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Outcome is a stage result: a value, a recoverable failure, or a value that
// legitimately does not exist. Err is set for Failed and may be set for Absent.
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Status: Succeeded, Value: v}
}

func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{Status: Failed, Err: err}
}

func Absence[T any](err error) Outcome[T] {
	return Outcome[T]{Status: Absent, Err: err}
}

func (o Outcome[T]) OK() bool { return o.Status == Succeeded }
