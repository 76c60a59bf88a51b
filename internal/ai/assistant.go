package ai

import (
	"context"

	"github.com/spigell/pfe-aggregator/internal/applicant"
	"github.com/spigell/pfe-aggregator/internal/posting"
)

// Motivation is a personalised paragraph inserted into an application email.
type Motivation struct {
	Subject   string
	Paragraph string
	Raw       string
}

type Drafter interface {
	Draft(ctx context.Context, contact applicant.Contact, p *posting.Posting) (*Motivation, error)
}
