package apps

import "fmt"

// ArgumentError reports a missing or invalid command line argument.
type ArgumentError struct {
	Arg string
	msg string
}

func NewArgumentError(arg, msg string) *ArgumentError {
	return &ArgumentError{Arg: arg, msg: msg}
}

// MissingArgument is the ArgumentError of a required flag left empty.
func MissingArgument(arg string) *ArgumentError {
	return NewArgumentError(arg, "is required")
}

func (err *ArgumentError) Error() string {
	if err.Arg == "" {
		return err.msg
	}
	return fmt.Sprintf("-%s %s", err.Arg, err.msg)
}
