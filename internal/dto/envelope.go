package dto

import (
	"errors"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

// Envelope is the uniform response shape for whatever transport ends up in
// front of the services.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Data    any      `json:"data,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail maps the error taxonomy to the envelope: validation errors expose
// every collected reason, everything else exposes a single message.
func Fail(err error) Envelope {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && len(verr.Reasons) > 1 {
		return Envelope{
			Success: false,
			Message: "validation failed",
			Errors:  verr.Reasons,
		}
	}

	return Envelope{Success: false, Message: err.Error()}
}
