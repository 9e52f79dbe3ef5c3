package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
	"github.com/shopspring/decimal"
)

type productStore struct{ *tx }

func (s *productStore) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(s.data.products))
	for _, p := range s.data.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *productStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s.data.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *productStore) Create(ctx context.Context, p *models.Product) error {
	if err := checkProduct(p); err != nil {
		return err
	}
	s.data.productSeq++
	p.ID = s.data.productSeq
	p.CreatedAt = s.now()
	s.data.products[p.ID] = *p
	return nil
}

func (s *productStore) Update(ctx context.Context, p *models.Product) (bool, error) {
	current, ok := s.data.products[p.ID]
	if !ok {
		return false, nil
	}
	if err := checkProduct(p); err != nil {
		return false, err
	}
	p.CreatedAt = current.CreatedAt
	s.data.products[p.ID] = *p
	return true, nil
}

func (s *productStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.data.products[id]; !ok {
		return false, nil
	}
	if n, _ := s.CountOrderItems(ctx, id); n > 0 {
		return false, &models.ReferentialConflictError{Entity: "product", ID: id, Referenced: "order items", Count: n}
	}
	delete(s.data.products, id)
	return true, nil
}

func (s *productStore) TakeStock(ctx context.Context, id int64, qty int) (decimal.Decimal, bool, error) {
	p, ok := s.data.products[id]
	if !ok || p.Quantity < qty {
		return decimal.Zero, false, nil
	}
	p.Quantity -= qty
	s.data.products[id] = p
	return p.Price, true, nil
}

func (s *productStore) AddStock(ctx context.Context, id int64, qty int) (bool, error) {
	p, ok := s.data.products[id]
	if !ok {
		return false, nil
	}
	if p.Quantity+qty < 0 {
		return false, &models.ValidationError{Field: "quantity", Reason: "stock cannot be negative"}
	}
	if p.Quantity+qty > models.MaxQuantity {
		return false, &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", models.MaxQuantity)}
	}
	p.Quantity += qty
	s.data.products[id] = p
	return true, nil
}

func (s *productStore) CountOrderItems(ctx context.Context, id int64) (int, error) {
	n := 0
	for _, item := range s.data.items {
		if item.ProductID == id {
			n++
		}
	}
	return n, nil
}

// checkProduct mirrors the CHECK constraints of the SQL schema.
func checkProduct(p *models.Product) error {
	if p.Quantity < 0 {
		return &models.ValidationError{Field: "quantity", Reason: "stock cannot be negative"}
	}
	if p.Quantity > models.MaxQuantity {
		return &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", models.MaxQuantity)}
	}
	if p.Price.IsNegative() {
		return &models.ValidationError{Field: "price", Reason: "price cannot be negative"}
	}
	return nil
}
