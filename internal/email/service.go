package email

import (
	"context"
)

// Service is the outbound email collaborator. Kind selects the visual
// styling of the HTML body; it never affects delivery.
type Service interface {
	Send(ctx context.Context, to string, subject string, body string, kind string) error
}
