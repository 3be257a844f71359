package status

// Error is an error answered with Status.
type Error struct {
	cause  error
	Status Status
}

func NewError(err error, status Status) Error {
	return Error{cause: err, Status: status}
}

func (e Error) Error() string {
	if e.cause == nil {
		return e.Status.String()
	}
	return e.Status.String() + ": " + e.cause.Error()
}

func (e Error) Cause() error  { return e.cause }
func (e Error) Unwrap() error { return e.cause }
