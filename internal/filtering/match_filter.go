package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/fitness"
	"github.com/spigell/pfe-aggregator/internal/posting"
	"github.com/spigell/pfe-aggregator/internal/roster"
)

type fitnessMatchFilter struct {
	companies []roster.CompanyRecord
	logger    *zap.Logger
	disabled  bool
	reason    string
}

// NewFitnessMatch creates a step that annotates every posting with its best roster match.
// It never drops postings.
func NewFitnessMatch(companies []roster.CompanyRecord, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fitnessMatchFilter{companies: companies, logger: logger}
}

func (f *fitnessMatchFilter) Name() string { return "fitness_match" }

func (f *fitnessMatchFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *fitnessMatchFilter) IsEnabled() bool { return !f.disabled }

func (f *fitnessMatchFilter) Validate() error { return nil }

func (f *fitnessMatchFilter) Apply(_ context.Context, v *posting.Postings) (*posting.Postings, Step, error) {
	if len(f.companies) == 0 {
		f.logger.Warn("company roster is empty; fitness matching skipped")
	}

	matched := 0
	for _, p := range v.Items {
		res := fitness.Apply(p, f.companies)
		if !res.Found() {
			continue
		}
		matched++
		if res.Approx {
			f.logger.Debug("approximate company match",
				zap.String("project_id", p.ProjectID),
				zap.String("company", p.Company),
				zap.String("csv_company_match", res.MatchedName),
				zap.Float64("score", res.Score),
			)
		}
	}

	f.logger.Info("fitness matching completed",
		zap.Int("postings", v.Len()),
		zap.Int("matched", matched),
		zap.Int("roster_size", len(f.companies)),
	)

	return v, Step{Initial: v.Len(), Left: v.Len()}, nil
}

func (f *fitnessMatchFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
