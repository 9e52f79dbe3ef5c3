package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type customerStore struct{ *tx }

func (s *customerStore) GetAll(ctx context.Context) ([]models.Customer, error) {
	customers := make([]models.Customer, 0, len(s.data.customers))
	for _, c := range s.data.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool {
		if customers[i].Name != customers[j].Name {
			return customers[i].Name < customers[j].Name
		}
		return customers[i].ID < customers[j].ID
	})
	return customers, nil
}

func (s *customerStore) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	c, ok := s.data.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *customerStore) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	if email == "" {
		return nil, nil
	}
	for _, c := range s.data.customers {
		if strings.EqualFold(c.Email, email) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *customerStore) Create(ctx context.Context, c *models.Customer) error {
	if err := s.checkEmail(c); err != nil {
		return err
	}
	s.data.customerSeq++
	c.ID = s.data.customerSeq
	c.CreatedAt = s.now()
	s.data.customers[c.ID] = *c
	return nil
}

func (s *customerStore) Update(ctx context.Context, c *models.Customer) (bool, error) {
	current, ok := s.data.customers[c.ID]
	if !ok {
		return false, nil
	}
	if err := s.checkEmail(c); err != nil {
		return false, err
	}
	c.CreatedAt = current.CreatedAt
	s.data.customers[c.ID] = *c
	return true, nil
}

func (s *customerStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.data.customers[id]; !ok {
		return false, nil
	}
	if n, _ := s.CountOrders(ctx, id); n > 0 {
		return false, &models.ReferentialConflictError{Entity: "customer", ID: id, Referenced: "orders", Count: n}
	}
	delete(s.data.customers, id)
	return true, nil
}

func (s *customerStore) CountOrders(ctx context.Context, id int64) (int, error) {
	n := 0
	for _, o := range s.data.orders {
		if o.CustomerID == id {
			n++
		}
	}
	return n, nil
}

// checkEmail mirrors the partial unique index on customers.email.
func (s *customerStore) checkEmail(c *models.Customer) error {
	existing, _ := s.GetByEmail(context.Background(), c.Email)
	if existing != nil && existing.ID != c.ID {
		return &models.ValidationError{Field: "email", Reason: "already in use"}
	}
	return nil
}
