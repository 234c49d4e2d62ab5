package coordinator

import (
	"errors"
	"fmt"

	netio "neuronet/internal/io"
	"neuronet/internal/scape"
	"neuronet/internal/snn"
)

var (
	ErrConfiguration         = snn.ErrConfiguration
	ErrInvalidState          = errors.New("invalid coordinator state")
	ErrEncoderLengthMismatch = errors.New("encoder length mismatch")
)

// Kind classifies why a run was aborted.
type Kind int

const (
	KindInvalidNeuronIndex Kind = iota + 1
	KindEncoderLengthMismatch
	KindEncoderContractViolation
	KindEnvironmentContractViolation
	KindDecoderContractViolation
	KindNotImplemented
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindInvalidNeuronIndex:
		return "InvalidNeuronIndex"
	case KindEncoderLengthMismatch:
		return "EncoderLengthMismatch"
	case KindEncoderContractViolation:
		return "EncoderContractViolation"
	case KindEnvironmentContractViolation:
		return "EnvironmentContractViolation"
	case KindDecoderContractViolation:
		return "DecoderContractViolation"
	case KindNotImplemented:
		return "NotImplemented"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	CollaboratorEncoder     = "encoder"
	CollaboratorDecoder     = "decoder"
	CollaboratorEnvironment = "environment"
)

// AbortError reports a collaborator contract violation. LastCompletedStep
// is -1 when no outer step completed.
type AbortError struct {
	Kind              Kind
	Collaborator      string
	Step              int
	LastCompletedStep int
	Err               error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted at step %d: %s from %s (last completed step %d): %v",
		e.Step, e.Kind, e.Collaborator, e.LastCompletedStep, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// classify maps well-known sentinels onto their kind and falls back to the
// collaborator's generic contract violation.
func classify(err error, fallback Kind) Kind {
	switch {
	case errors.Is(err, netio.ErrNotImplemented):
		return KindNotImplemented
	case errors.Is(err, snn.ErrInvalidNeuronIndex):
		return KindInvalidNeuronIndex
	case errors.Is(err, ErrEncoderLengthMismatch):
		return KindEncoderLengthMismatch
	case errors.Is(err, scape.ErrContractViolation):
		return KindEnvironmentContractViolation
	default:
		return fallback
	}
}
