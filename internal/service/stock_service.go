package service

import (
	"context"
	"strings"
	"time"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MovementInput is one stock change. For MovementAdjust, Quantity is the new
// absolute level.
type MovementInput struct {
	VariantID     uuid.UUID
	Type          string
	Quantity      int
	Reason        string
	ReferenceType *string
	ReferenceID   *uuid.UUID
	UserID        *uuid.UUID
}

type StockService interface {
	RecordMovement(ctx context.Context, userID *uuid.UUID, req dto.StockMovementRequest) (*dto.StockMovementResponse, error)
	// Apply runs inside the caller's unit of work when ctx carries one.
	Apply(ctx context.Context, in MovementInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.ListResponse[dto.StockMovementResponse], error)
	Alerts(ctx context.Context) ([]dto.StockAlertResponse, error)
	Summary(ctx context.Context) (*dto.StockSummaryResponse, error)
}

type stockService struct {
	tx        repository.TransactionManager
	variants  repository.VariantRepository
	movements repository.StockMovementRepository
	cal       Calendar
}

func NewStockService(
	tx repository.TransactionManager,
	variants repository.VariantRepository,
	movements repository.StockMovementRepository,
	cal Calendar,
) StockService {
	return &stockService{tx: tx, variants: variants, movements: movements, cal: cal}
}

// ── RecordMovement ────────────────────────────────────────────────────────────

func (s *stockService) RecordMovement(ctx context.Context, userID *uuid.UUID, req dto.StockMovementRequest) (*dto.StockMovementResponse, error) {
	variantID, err := parseUUID("variant_id", req.VariantID)
	if err != nil {
		return nil, err
	}
	refID, err := parseOptionalUUID("reference_id", req.ReferenceID)
	if err != nil {
		return nil, err
	}

	m, err := s.Apply(ctx, MovementInput{
		VariantID:     variantID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		ReferenceType: trimmed(req.ReferenceType),
		ReferenceID:   refID,
		UserID:        userID,
	})
	if err != nil {
		return nil, err
	}
	resp := toMovementResponse(m)
	return &resp, nil
}

// ── Apply ─────────────────────────────────────────────────────────────────────

func (s *stockService) Apply(ctx context.Context, in MovementInput) (*model.StockMovement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	var mov *model.StockMovement
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := s.variants.FindForUpdate(txCtx, in.VariantID)
		if err != nil {
			return notFoundOr(err, "variant", in.VariantID)
		}

		before := v.Stock
		after := before
		switch in.Type {
		case model.MovementIn, model.MovementReturn:
			after = before + in.Quantity
		case model.MovementOut:
			after = before - in.Quantity
			if after < 0 {
				return &InsufficientStockError{VariantID: v.ID, Requested: in.Quantity, Available: before}
			}
		case model.MovementAdjust:
			after = in.Quantity
		}

		if err := s.variants.SetStock(txCtx, v.ID, after); err != nil {
			return err
		}
		mov = &model.StockMovement{
			ID:            uuid.New(),
			VariantID:     v.ID,
			Type:          in.Type,
			Quantity:      in.Quantity,
			StockBefore:   before,
			StockAfter:    after,
			Reason:        strings.TrimSpace(in.Reason),
			ReferenceType: in.ReferenceType,
			ReferenceID:   in.ReferenceID,
			UserID:        in.UserID,
			CreatedAt:     s.cal.Now(),
		}
		if err := s.movements.Create(txCtx, mov); err != nil {
			return err
		}
		mov.Variant = v
		if after <= v.MinStock && before > v.MinStock {
			log.Info().Str("variant_id", v.ID.String()).Int("stock", after).Int("min_stock", v.MinStock).Msg("stock below minimum")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

func validateMovement(in MovementInput) error {
	switch in.Type {
	case model.MovementIn, model.MovementOut, model.MovementReturn:
		if in.Quantity <= 0 {
			return newValidation("quantity", "must be greater than zero")
		}
	case model.MovementAdjust:
		if in.Quantity < 0 {
			return newValidation("quantity", "must not be negative")
		}
	default:
		return newValidation("type", "must be one of in, out, adjust, return")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return newValidation("reason", "is required")
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *stockService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.ListResponse[dto.StockMovementResponse], error) {
	rows, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toMovementResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}

func (s *stockService) Alerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	variants, err := s.variants.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockAlertResponse, 0, len(variants))
	for _, v := range variants {
		a := dto.StockAlertResponse{
			VariantID: v.ID.String(),
			ProductID: v.ProductID.String(),
			Size:      v.Size,
			Color:     v.Color,
			Stock:     v.Stock,
			MinStock:  v.MinStock,
			Shortfall: v.MinStock - v.Stock,
		}
		if v.Product != nil {
			a.ProductName = v.Product.Name
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *stockService) Summary(ctx context.Context) (*dto.StockSummaryResponse, error) {
	counts, err := s.variants.Counts(ctx)
	if err != nil {
		return nil, err
	}
	in, out, err := s.movements.UnitsSince(ctx, s.cal.DayStart(s.cal.TodayDate()))
	if err != nil {
		return nil, err
	}
	return &dto.StockSummaryResponse{
		Products:      counts.Products,
		Variants:      counts.Variants,
		TotalUnits:    counts.TotalUnits,
		Alerts:        counts.Alerts,
		TodayUnitsIn:  in,
		TodayUnitsOut: out,
	}, nil
}

func toMovementResponse(m *model.StockMovement) dto.StockMovementResponse {
	r := dto.StockMovementResponse{
		ID:            m.ID.String(),
		VariantID:     m.VariantID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		Reason:        m.Reason,
		ReferenceType: m.ReferenceType,
		ReferenceID:   uuidString(m.ReferenceID),
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.Variant != nil && m.Variant.Product != nil {
		r.ProductName = m.Variant.Product.Name
	}
	return r
}
