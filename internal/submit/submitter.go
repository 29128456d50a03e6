package submit

import (
	"context"
	"errors"
	"strings"

	"github.com/five82/spoolwatch/internal/spooler"
)

// Kind classifies the result of a submission.
type Kind int

const (
	OutcomeSuccess Kind = iota
	OutcomeInvalid
	OutcomeLogin
	OutcomeServerError
	OutcomeTransportError
)

func (k Kind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeLogin:
		return "login"
	case OutcomeServerError:
		return "server_error"
	default:
		return "transport_error"
	}
}

// Outcome is shown to the user after a submission attempt. Message is empty
// for OutcomeLogin, which switches to the login view instead.
type Outcome struct {
	Kind    Kind
	Message string
	// ResetForm is set after a successful upload.
	ResetForm bool
}

// Submitter sends validated tasks.
type Submitter struct {
	API     TaskAPI
	Allowed []string
}

// TaskAPI is the slice of the spooler client a Submitter needs.
type TaskAPI interface {
	SubmitTask(ctx context.Context, req spooler.TaskRequest) error
}

// Submit validates the form, applies the session identity and posts it. An
// authenticated session always overrides the username typed in the form.
func (s Submitter) Submit(ctx context.Context, form Form, session spooler.SessionInfo) Outcome {
	req, err := Validate(form, s.Allowed)
	if err != nil {
		return Outcome{Kind: OutcomeInvalid, Message: Message(err)}
	}
	if session.Authenticated && session.Username != "" {
		req.Username = session.Username
	}

	err = s.API.SubmitTask(ctx, req)
	return Classify(err)
}

// Classify maps an upload error to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Kind: OutcomeSuccess, Message: MsgAdded, ResetForm: true}
	case errors.Is(err, spooler.ErrUnauthorized):
		return Outcome{Kind: OutcomeLogin}
	case !spooler.IsTransport(err):
		msg := strings.TrimSpace(spooler.ServerMessage(err))
		if msg == "" {
			msg = msgUnknownError
		}
		return Outcome{Kind: OutcomeServerError, Message: "Error: " + msg}
	default:
		return Outcome{Kind: OutcomeTransportError, Message: MsgConnectError}
	}
}
