package mailroom

import (
	"errors"
	"strings"
)

// Every way an inbound email can be rejected. Callers match these with
// errors.Is; the full payload travels in Rejection.
var (
	ErrEmptyInput        = errors.New("email input is blank")
	ErrUnparsable        = errors.New("email could not be parsed")
	ErrRoutingNotFound   = errors.New("email matched no conversation or project")
	ErrUserNotFound      = errors.New("no known user for this email")
	ErrUserBlocked       = errors.New("user is blocked")
	ErrUserNotAuthorized = errors.New("user is not authorized")
	ErrAutoGenerated     = errors.New("email is auto-generated")
	ErrNoteableNotFound  = errors.New("the discussion this email replies to no longer exists")
	ErrInvalidNote       = errors.New("the comment could not be created")
	ErrInvalidIssue      = errors.New("the issue could not be created")
	ErrEmptyReply        = errors.New("email contained no reply text")
)

// Rejection is a terminal, non-retryable verdict on one email. It wraps one
// of the sentinel errors above and carries the human-readable material bounce
// notifications are built from. Infrastructure failures are not Rejections;
// they propagate as ordinary wrapped errors.
type Rejection struct {
	// Reason is the sentinel error naming the rejection.
	Reason error

	// Detail is an optional single-line elaboration of the reason.
	Detail string

	// Reasons holds validation messages aggregated from a downstream
	// creation call, one per line when rendered.
	Reasons []string
}

func reject(reason error, detail string) *Rejection {
	return &Rejection{Reason: reason, Detail: detail}
}

func (r *Rejection) Error() string {
	var b strings.Builder
	b.WriteString(r.Reason.Error())
	if r.Detail != "" {
		b.WriteString(": ")
		b.WriteString(r.Detail)
	}
	for _, reason := range r.Reasons {
		b.WriteString("\n")
		b.WriteString(reason)
	}
	return b.String()
}

func (r *Rejection) Unwrap() error { return r.Reason }

// AsRejection unpacks err into a Rejection, following wrapped chains.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Kind returns the stable identifier a rejection is recorded and bounced
// under, or "" when err is not a rejection.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrUnparsable):
		return "email_unparsable"
	case errors.Is(err, ErrRoutingNotFound):
		return "routing_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrUserBlocked):
		return "user_blocked"
	case errors.Is(err, ErrUserNotAuthorized):
		return "user_not_authorized"
	case errors.Is(err, ErrAutoGenerated):
		return "auto_generated"
	case errors.Is(err, ErrNoteableNotFound):
		return "noteable_not_found"
	case errors.Is(err, ErrInvalidNote):
		return "invalid_note"
	case errors.Is(err, ErrInvalidIssue):
		return "invalid_issue"
	case errors.Is(err, ErrEmptyReply):
		return "empty_reply"
	}
	return ""
}
