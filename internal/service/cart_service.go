package service

import (
	"context"

	"boutique/internal/dto"
	"boutique/internal/model"
	"boutique/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService keeps the pre-checkout basket. Stock is checked on every
// change but only reserved by CommitOrder.
type CartService interface {
	Get(ctx context.Context, customerID uuid.UUID) (*dto.CartResponse, error)
	AddItem(ctx context.Context, customerID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error)
	UpdateQuantity(ctx context.Context, customerID, variantID uuid.UUID, req dto.UpdateCartItemRequest) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, customerID, variantID uuid.UUID) (*dto.CartResponse, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type cartService struct {
	carts    repository.CartRepository
	variants repository.VariantRepository
}

func NewCartService(carts repository.CartRepository, variants repository.VariantRepository) CartService {
	return &cartService{carts: carts, variants: variants}
}

func (s *cartService) Get(ctx context.Context, customerID uuid.UUID) (*dto.CartResponse, error) {
	lines, err := s.carts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resp := &dto.CartResponse{CustomerID: customerID.String(), Items: make([]dto.CartLineResponse, 0, len(lines))}
	for _, l := range lines {
		line := dto.CartLineResponse{VariantID: l.VariantID.String(), Quantity: l.Quantity}
		if l.Variant != nil && l.Variant.Product != nil {
			p := l.Variant.Product
			q := decimal.NewFromInt(int64(l.Quantity))
			line.ProductName = p.Name
			line.Available = l.Variant.Stock
			line.UnitPrice = p.Price
			line.UnitDiscount = p.UnitDiscount()
			if line.UnitDiscount.GreaterThan(p.Price) {
				line.UnitDiscount = p.Price
			}
			line.LineTotal = p.Price.Sub(line.UnitDiscount).Mul(q).Round(2)
			resp.Subtotal = resp.Subtotal.Add(p.Price.Mul(q).Round(2))
			resp.Discount = resp.Discount.Add(line.UnitDiscount.Mul(q).Round(2))
		}
		resp.Items = append(resp.Items, line)
	}
	resp.Total = resp.Subtotal.Sub(resp.Discount)
	return resp, nil
}

func (s *cartService) AddItem(ctx context.Context, customerID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	variantID, err := parseUUID("variant_id", req.VariantID)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, newValidation("quantity", "must be at least 1")
	}

	line, err := s.carts.FindLine(ctx, customerID, variantID)
	switch {
	case isNotFound(err):
		line = &model.CartItem{ID: uuid.New(), CustomerID: customerID, VariantID: variantID}
	case err != nil:
		return nil, err
	}
	if err := s.checkAvailable(ctx, variantID, line.Quantity+req.Quantity); err != nil {
		return nil, err
	}
	line.Quantity += req.Quantity
	line.Variant = nil
	if err := s.carts.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, customerID, variantID uuid.UUID, req dto.UpdateCartItemRequest) (*dto.CartResponse, error) {
	if req.Quantity < 1 {
		return nil, newValidation("quantity", "must be at least 1")
	}
	line, err := s.carts.FindLine(ctx, customerID, variantID)
	if err != nil {
		return nil, notFoundOr(err, "cart item", variantID)
	}
	if err := s.checkAvailable(ctx, variantID, req.Quantity); err != nil {
		return nil, err
	}
	line.Quantity = req.Quantity
	line.Variant = nil
	if err := s.carts.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, variantID uuid.UUID) (*dto.CartResponse, error) {
	if _, err := s.carts.FindLine(ctx, customerID, variantID); err != nil {
		return nil, notFoundOr(err, "cart item", variantID)
	}
	if err := s.carts.DeleteLine(ctx, customerID, variantID); err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *cartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.carts.Clear(ctx, customerID)
}

func (s *cartService) checkAvailable(ctx context.Context, variantID uuid.UUID, qty int) error {
	v, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return notFoundOr(err, "variant", variantID)
	}
	if !v.Active || v.Product == nil || !v.Product.Active {
		return newValidation("variant_id", "variant is not available for sale")
	}
	if qty > v.Stock {
		return &InsufficientStockError{VariantID: v.ID, Requested: qty, Available: v.Stock}
	}
	return nil
}
