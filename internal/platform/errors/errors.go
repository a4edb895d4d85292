package errors

import (
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain is the ErrorInfo domain clients match reasons against.
const Domain = "github.com/louisbranch/homechain"

// Error carries a Code through the stack until an API edge renders it.
// Message is for logs; callers see the localized text for Code.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string // template values, echoed in ErrorInfo
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so sentinels such as
// storage.ErrNotFound match wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New returns an error with no metadata or cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error whose localized message is rendered from metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap returns an error that keeps cause for errors.Is and errors.As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// From returns the first *Error in err's chain, or wraps err as CodeUnknown.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeUnknown, err.Error(), err)
}

// Localizer renders the user-facing text for a code.
type Localizer interface {
	Locale() string
	Format(code string, metadata map[string]string) string
}

// Localize builds the gRPC status for e. The status message stays the
// internal Message; the caller-facing text travels in a LocalizedMessage
// detail next to an ErrorInfo whose reason is the code.
func (e *Error) Localize(l Localizer) error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)
	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: e.Metadata,
	})
	if err != nil {
		return st.Err()
	}
	if l == nil {
		return withInfo.Err()
	}
	withMessage, err := withInfo.WithDetails(&errdetails.LocalizedMessage{
		Locale:  l.Locale(),
		Message: l.Format(string(e.Code), e.Metadata),
	})
	if err != nil {
		return withInfo.Err()
	}
	return withMessage.Err()
}
