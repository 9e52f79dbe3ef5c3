package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/directory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

var sampleProducts = []models.CreateProductRequest{
	{Name: "ASUS Desktop PC", Description: "Office desktop computer", Price: decimal.NewFromInt(45000), Quantity: 10, Category: "Electronics"},
	{Name: "Logitech Keyboard", Description: "Wireless keyboard", Price: decimal.NewFromInt(3500), Quantity: 25, Category: "Accessories"},
	{Name: `Samsung 24" Monitor`, Description: "24 inch LCD monitor", Price: decimal.NewFromInt(15000), Quantity: 8, Category: "Electronics"},
	{Name: "Logitech Mouse", Description: "Optical mouse", Price: decimal.NewFromInt(1200), Quantity: 30, Category: "Accessories"},
	{Name: "HP LaserJet Printer", Description: "Laser printer", Price: decimal.NewFromInt(8500), Quantity: 5, Category: "Office equipment"},
}

var sampleCustomers = []models.CreateCustomerRequest{
	{Name: "Horns & Hooves LLC", Email: "info@hornsandhooves.example", Phone: "+7-495-123-45-67", Address: "1 Lenin St, Moscow"},
	{Name: "I. I. Petrov", Email: "petrov@mail.example", Phone: "+7-812-987-65-43", Address: "100 Nevsky Ave, Saint Petersburg"},
	{Name: "Bright Future LLC", Email: "future@mail.example", Phone: "+7-495-555-44-33", Address: "50 Mira St, Moscow"},
}

// seedSampleData fills an empty catalog and directory. Stores that already
// hold products or customers are left alone.
func seedSampleData(ctx context.Context, products *catalog.Catalog, customers *directory.Directory) error {
	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, req := range sampleProducts {
			if _, err := products.Create(ctx, req); err != nil {
				return err
			}
		}
		log.Printf("✅ Seeded %d sample products", len(sampleProducts))
	}

	known, err := customers.List(ctx)
	if err != nil {
		return err
	}
	if len(known) == 0 {
		for _, req := range sampleCustomers {
			if _, err := customers.Create(ctx, req); err != nil {
				return err
			}
		}
		log.Printf("✅ Seeded %d sample customers", len(sampleCustomers))
	}
	return nil
}
