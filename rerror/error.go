// Package rerror defines the single error type application code sees,
// no matter which layer of the pipeline raised it.
package rerror

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags an Error with the taxonomy from the runtime's error design.
type Kind int

const (
	// KindTemplateParse marks a malformed XML or py-sql template detected at load time.
	KindTemplateParse Kind = iota
	// KindTemplateEvaluate marks an unbound name used via ${} or an invalid operator. Rendering does not
	// produce it: CompiledTemplate.Render returns no error, and an unbound name evaluates to Null.
	KindTemplateEvaluate
	// KindDecode marks a failure translating rows into a typed value.
	KindDecode
	// KindDriver marks any error bubbled up from a driver call.
	KindDriver
	// KindPool marks an acquisition timeout or a closed pool.
	KindPool
	// KindTx marks transaction lifecycle misuse.
	KindTx
	// KindIO marks a lower-level I/O error surfaced through the driver.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindTemplateParse:
		return "TemplateParse"
	case KindTemplateEvaluate:
		return "TemplateEvaluate"
	case KindDecode:
		return "Decode"
	case KindDriver:
		return "Driver"
	case KindPool:
		return "Pool"
	case KindTx:
		return "Tx"
	case KindIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Error is the single error type seen by application code. It carries a Kind tag, a
// human message and, for driver errors, the driver's own tag and verbatim message.
type Error struct {
	Kind       Kind
	Message    string
	DriverName string
	cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.DriverName != "" {
		return fmt.Sprintf("%s: %s (driver %s)", e.Kind, e.Message, e.DriverName)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As keep working across the boundary.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error of the given kind with a message, keeping a stack via pkg/errors.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.New(message)}
}

// Wrap attaches a Kind to an existing error without losing its stack/cause.
func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Message: message, cause: errors.Wrap(err, message)}
}

// WrapDriver tags err as a driver error, keeping the driver's message verbatim plus its name.
func WrapDriver(driverName string, err error) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: KindDriver, Message: err.Error(), DriverName: driverName, cause: errors.WithStack(err)}
}

// Sentinel decode, transaction and pool errors, matched with errors.Is.
var (
	ErrDecodeMultipleRows   = errors.New("expected at most one row, got more than one")
	ErrDecodeColumnMismatch = errors.New("decode target does not match the column count")
	ErrTxAlreadyFinished    = errors.New("transaction already finished")
	ErrTxNestingUnderflow   = errors.New("transaction savepoint depth underflow")
	ErrPoolAcquireTimeout   = errors.New("timed out acquiring a connection from the pool")
	ErrPoolClosed           = errors.New("connection pool is closed")
)

// Is lets errors.Is match an *Error against one of the exported sentinels by comparing the wrapped cause.
func (e *Error) Is(target error) bool {
	return errors.Is(e.cause, target)
}

// DecodeMultipleRows builds a Decode error for a single-row target that received more than one row.
func DecodeMultipleRows() *Error {
	return Wrap(KindDecode, ErrDecodeMultipleRows, "can't decode: expected exactly one row")
}

// DecodeColumnMismatch builds a Decode error for a primitive/extension target whose row has != 1 column.
func DecodeColumnMismatch() *Error {
	return Wrap(KindDecode, ErrDecodeColumnMismatch, "can't decode: expected exactly one column")
}

// TxAlreadyFinished builds a Tx error for work attempted after commit/rollback.
func TxAlreadyFinished() *Error {
	return Wrap(KindTx, ErrTxAlreadyFinished, "transaction already finished")
}

// TxNestingUnderflow builds a Tx error for an unmatched commit/rollback call.
func TxNestingUnderflow() *Error {
	return Wrap(KindTx, ErrTxNestingUnderflow, "transaction nesting underflow")
}
