package service

import (
	"context"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/shopspring/decimal"
)

const rejectionPrefix = "REJECTED BY FINANCE: "

// recompute sums the session's current entries. Stored totals are never
// used as a starting point.
func recompute(ctx context.Context, repo repository.CashSessionRepository, s *model.CashSession) (repository.EntryTotals, error) {
	return repo.SumEntries(ctx, repository.EntryFilter{SessionID: &s.ID})
}

func balanceOf(s *model.CashSession, t repository.EntryTotals) decimal.Decimal {
	return s.OpeningAmount.Add(t.TotalIn).Sub(t.TotalOut).Round(2)
}

// freezeTotals writes recomputed totals (and the difference against the
// declared amount, when there is one) onto s.
func freezeTotals(s *model.CashSession, t repository.EntryTotals) {
	in, out := t.TotalIn.Round(2), t.TotalOut.Round(2)
	bal := balanceOf(s, t)
	s.TotalIn, s.TotalOut, s.ComputedBalance = &in, &out, &bal
	s.Difference = nil
	if s.DeclaredAmount != nil {
		d := s.DeclaredAmount.Sub(bal).Round(2)
		s.Difference = &d
	}
}

// clearClosing undoes a close: the session looks freshly opened again.
func clearClosing(s *model.CashSession) {
	s.CloserID = nil
	s.ClosedAt = nil
	s.DeclaredAmount = nil
	s.TotalIn = nil
	s.TotalOut = nil
	s.ComputedBalance = nil
	s.Difference = nil
}

// sessionReport loads a session with entries, live totals and the payment
// method breakdown.
func sessionReport(ctx context.Context, repo repository.CashSessionRepository, s *model.CashSession) (*dto.SessionReportResponse, error) {
	t, err := recompute(ctx, repo, s)
	if err != nil {
		return nil, err
	}
	rows, err := repo.BreakdownEntries(ctx, repository.EntryFilter{SessionID: &s.ID}, repository.GroupByPaymentMethod)
	if err != nil {
		return nil, err
	}
	live := dto.LiveTotals{
		TotalIn:    t.TotalIn.Round(2),
		TotalOut:   t.TotalOut.Round(2),
		Balance:    balanceOf(s, t),
		EntryCount: t.Count,
	}
	if s.DeclaredAmount != nil {
		d := s.DeclaredAmount.Sub(live.Balance).Round(2)
		live.Difference = &d
	}
	return &dto.SessionReportResponse{
		Session:         toSessionResponse(s),
		Live:            live,
		ByPaymentMethod: toBreakdown(rows),
	}, nil
}
