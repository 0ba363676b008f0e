package services

import (
	"context"
	"errors"
	"fmt"

	"food-kiosk/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrUnknownMenuItem = errors.New("unknown menu item")

// Catalog is the read-only menu lookup the session orders against.
type Catalog interface {
	List(ctx context.Context, category string) ([]models.MenuEntry, error)
	Get(ctx context.Context, id string) (*models.MenuEntry, error)
}

// PGCatalog reads the menu from the menu_items table seeded by migrations.
type PGCatalog struct {
	pool *pgxpool.Pool
}

func NewPGCatalog(pool *pgxpool.Pool) *PGCatalog {
	return &PGCatalog{pool: pool}
}

func (c *PGCatalog) List(ctx context.Context, category string) ([]models.MenuEntry, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, category, name, description, unit_price::text, image_ref, featured
		FROM menu_items
		WHERE category = $1
		ORDER BY id`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MenuEntry
	for rows.Next() {
		e, err := scanMenuEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (c *PGCatalog) Get(ctx context.Context, id string) (*models.MenuEntry, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, category, name, description, unit_price::text, image_ref, featured
		FROM menu_items
		WHERE id = $1`,
		id,
	)
	e, err := scanMenuEntry(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownMenuItem
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanMenuEntry(scan func(...any) error) (*models.MenuEntry, error) {
	var e models.MenuEntry
	var price string
	if err := scan(&e.ID, &e.Category, &e.Name, &e.Description, &price, &e.ImageRef, &e.Featured); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse unit_price for %s: %w", e.ID, err)
	}
	e.UnitPrice = d
	return &e, nil
}

// StaticCatalog serves a fixed menu from memory. Used when the kiosk runs
// without a database, and in tests.
type StaticCatalog struct {
	byCategory map[string][]models.MenuEntry
	byID       map[string]models.MenuEntry
}

func NewStaticCatalog(entries []models.MenuEntry) *StaticCatalog {
	c := &StaticCatalog{
		byCategory: make(map[string][]models.MenuEntry),
		byID:       make(map[string]models.MenuEntry),
	}
	for _, e := range entries {
		c.byCategory[e.Category] = append(c.byCategory[e.Category], e)
		c.byID[e.ID] = e
	}
	return c
}

func (c *StaticCatalog) List(_ context.Context, category string) ([]models.MenuEntry, error) {
	return c.byCategory[category], nil
}

func (c *StaticCatalog) Get(_ context.Context, id string) (*models.MenuEntry, error) {
	e, ok := c.byID[id]
	if !ok {
		return nil, ErrUnknownMenuItem
	}
	return &e, nil
}

// DefaultCatalog is the built-in kiosk menu.
func DefaultCatalog() *StaticCatalog {
	price := decimal.RequireFromString
	return NewStaticCatalog([]models.MenuEntry{
		{ID: "popular-1", Category: models.CategoryPopular, Name: "chicken tandoori", Description: "Spicy grilled chicken with Indian spices and herbs, served with mint chutney", UnitPrice: price("190.99"), ImageRef: "/images/chicken-tandoori.jpg", Featured: true},
		{ID: "popular-2", Category: models.CategoryPopular, Name: "Peri Peri fries", Description: "Crispy fries with spicy peri peri seasoning and herbs", UnitPrice: price("80.49"), ImageRef: "/images/peri-peri-fries.jpg", Featured: true},
		{ID: "popular-3", Category: models.CategoryPopular, Name: "Double Burger", Description: "Double patty burger with cheese, lettuce, tomato and special sauce", UnitPrice: price("170.99"), ImageRef: "/images/double-burger.jpg", Featured: true},
		{ID: "popular-4", Category: models.CategoryPopular, Name: "Chicken Sandwich", Description: "Grilled chicken sandwich with fresh veggies and mayo", UnitPrice: price("60.49"), ImageRef: "/images/chicken-sandwich.jpg", Featured: true},
		{ID: "popular-5", Category: models.CategoryPopular, Name: "beverages", Description: "Refreshing soft drinks and mocktails to quench your thirst", UnitPrice: price("100.99"), ImageRef: "/images/beverages.jpg", Featured: true},
		{ID: "popular-6", Category: models.CategoryPopular, Name: "desserts", Description: "Sweet treats to end your meal on a perfect note", UnitPrice: price("250.49"), ImageRef: "/images/desserts.jpg", Featured: true},
		{ID: "chicken-1", Category: models.CategoryChicken, Name: "chicken tandoori", Description: "Spicy grilled chicken with Indian spices and herbs, served with mint chutney", UnitPrice: price("190.99"), ImageRef: "/images/chicken-tandoori.jpg"},
		{ID: "chicken-2", Category: models.CategoryChicken, Name: "Chicken Sandwich", Description: "Grilled chicken sandwich with fresh veggies and mayo", UnitPrice: price("60.49"), ImageRef: "/images/chicken-sandwich.jpg"},
		{ID: "chicken-3", Category: models.CategoryChicken, Name: "Chicken Wings", Description: "Spicy chicken wings with BBQ sauce", UnitPrice: price("150.99"), ImageRef: "/images/chicken-wings.jpg"},
		{ID: "burger-1", Category: models.CategoryBurgers, Name: "Double Burger", Description: "Double patty burger with cheese, lettuce, tomato and special sauce", UnitPrice: price("170.99"), ImageRef: "/images/double-burger.jpg"},
		{ID: "burger-2", Category: models.CategoryBurgers, Name: "Veggie Burger", Description: "Plant-based patty with fresh veggies and special sauce", UnitPrice: price("140.99"), ImageRef: "/images/veggie-burger.jpg"},
		{ID: "side-1", Category: models.CategorySides, Name: "Peri Peri fries", Description: "Crispy fries with spicy peri peri seasoning and herbs", UnitPrice: price("80.49"), ImageRef: "/images/peri-peri-fries.jpg"},
		{ID: "side-2", Category: models.CategorySides, Name: "Onion Rings", Description: "Crispy battered onion rings with dipping sauce", UnitPrice: price("90.49"), ImageRef: "/images/onion-rings.jpg"},
		{ID: "beverage-1", Category: models.CategoryBeverages, Name: "beverages", Description: "Refreshing soft drinks and mocktails to quench your thirst", UnitPrice: price("100.99"), ImageRef: "/images/beverages.jpg"},
		{ID: "beverage-2", Category: models.CategoryBeverages, Name: "Iced Tea", Description: "Refreshing iced tea with lemon", UnitPrice: price("70.99"), ImageRef: "/images/iced-tea.jpg"},
		{ID: "dessert-1", Category: models.CategoryDesserts, Name: "desserts", Description: "Sweet treats to end your meal on a perfect note", UnitPrice: price("250.49"), ImageRef: "/images/desserts.jpg"},
		{ID: "dessert-2", Category: models.CategoryDesserts, Name: "Ice Cream", Description: "Creamy vanilla ice cream with chocolate sauce", UnitPrice: price("120.49"), ImageRef: "/images/ice-cream.jpg"},
	})
}
