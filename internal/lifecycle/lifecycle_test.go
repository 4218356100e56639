package lifecycle

import (
	"errors"
	"testing"

	"site-projects/internal/apperrors"
	"site-projects/internal/models"
)

func TestTransitionTable(t *testing.T) {
	want := map[models.ProjectStatus][]models.ProjectStatus{
		models.StatusDraft:              {models.StatusEstimationPrepared},
		models.StatusEstimationPrepared: {models.StatusQuotationSent, models.StatusOnHold, models.StatusCancelled},
		models.StatusQuotationSent:      {models.StatusQuotationApproved, models.StatusQuotationRejected, models.StatusOnHold, models.StatusCancelled},
		models.StatusQuotationApproved:  {models.StatusLPOReceived, models.StatusOnHold, models.StatusCancelled},
		models.StatusLPOReceived:        {models.StatusTeamAssigned, models.StatusOnHold, models.StatusCancelled},
		models.StatusTeamAssigned:       {models.StatusWorkStarted, models.StatusOnHold},
		models.StatusWorkStarted:        {models.StatusInProgress, models.StatusOnHold, models.StatusCancelled},
		models.StatusInProgress:         {models.StatusWorkCompleted, models.StatusOnHold, models.StatusCancelled},
		models.StatusWorkCompleted:      {models.StatusQualityCheck, models.StatusOnHold},
		models.StatusQualityCheck:       {models.StatusClientHandover, models.StatusWorkCompleted},
		models.StatusClientHandover:     {models.StatusFinalInvoiceSent, models.StatusOnHold},
		models.StatusFinalInvoiceSent:   {models.StatusPaymentReceived, models.StatusOnHold},
		models.StatusPaymentReceived:    {models.StatusProjectClosed},
		models.StatusOnHold:             {models.StatusInProgress, models.StatusWorkStarted, models.StatusCancelled},
	}

	for _, from := range All {
		allowed := map[models.ProjectStatus]bool{}
		for _, to := range want[from] {
			allowed[to] = true
		}
		for _, to := range All {
			got := CanTransition(from, to)
			if got != allowed[to] {
				t.Fatalf("%s -> %s: expected allowed=%v, got %v", from, to, allowed[to], got)
			}
			err := Check(from, to)
			if allowed[to] && err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
			}
			if !allowed[to] && !errors.Is(err, apperrors.ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected invalid transition, got %v", from, to, err)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range All {
		terminal := s == models.StatusCancelled || s == models.StatusProjectClosed || s == models.StatusQuotationRejected
		if IsTerminal(s) != terminal {
			t.Fatalf("%s: expected terminal=%v", s, terminal)
		}
	}
	if IsTerminal("unknown") {
		t.Fatalf("unknown status must not be terminal")
	}
	if Valid("unknown") {
		t.Fatalf("unknown status must not be valid")
	}
}

func TestNextReturnsCopy(t *testing.T) {
	next := Next(models.StatusDraft)
	next[0] = models.StatusCancelled
	if !CanTransition(models.StatusDraft, models.StatusEstimationPrepared) {
		t.Fatalf("mutating Next result must not change the table")
	}
}

func TestValidateProgress(t *testing.T) {
	for p := -5; p <= 105; p++ {
		err := ValidateProgress(p)
		inRange := p >= 0 && p <= 100
		if inRange && err != nil {
			t.Fatalf("progress %d: unexpected error %v", p, err)
		}
		if !inRange && !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("progress %d: expected validation error, got %v", p, err)
		}
	}
}

func TestProgressAutoTransitions(t *testing.T) {
	tests := []struct {
		name     string
		current  models.ProjectStatus
		progress int
		want     models.ProjectStatus
		changed  bool
	}{
		{"team assigned starts work", models.StatusTeamAssigned, 0, models.StatusWorkStarted, true},
		{"team assigned with progress goes to in progress", models.StatusTeamAssigned, 20, models.StatusInProgress, true},
		{"work started stays at zero", models.StatusWorkStarted, 0, models.StatusWorkStarted, false},
		{"work started moves to in progress", models.StatusWorkStarted, 1, models.StatusInProgress, true},
		{"in progress stays", models.StatusInProgress, 50, models.StatusInProgress, false},
		{"in progress completes at 100", models.StatusInProgress, 100, models.StatusWorkCompleted, true},
		{"team assigned to completed in one step", models.StatusTeamAssigned, 100, models.StatusWorkCompleted, true},
		{"already completed", models.StatusWorkCompleted, 100, models.StatusWorkCompleted, false},
		{"draft untouched below 100", models.StatusDraft, 40, models.StatusDraft, false},
		{"cancelled is terminal", models.StatusCancelled, 100, models.StatusCancelled, false},
		{"closed is terminal", models.StatusProjectClosed, 100, models.StatusProjectClosed, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := Progress(tc.current, tc.progress)
			if got != tc.want || changed != tc.changed {
				t.Fatalf("expected (%s, %v), got (%s, %v)", tc.want, tc.changed, got, changed)
			}
		})
	}
}
