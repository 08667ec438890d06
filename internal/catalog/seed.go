package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/ukegedo/fruver-orderflow/internal/money"
)

// Default category names.
const (
	CategoryFruit     = "Fruta"
	CategoryVegetable = "Verdura"
	CategoryOther     = "Otros"
)

// DefaultCategories is created by Seed when missing.
var DefaultCategories = []string{CategoryFruit, CategoryVegetable, CategoryOther}

// SeedProduct is one entry of the starting catalog; prices are per Kg.
type SeedProduct struct {
	Name     string
	Category string
	Price    int64
}

// DefaultProducts is the starting fresh produce catalog.
var DefaultProducts = []SeedProduct{
	{"Mango", CategoryFruit, 3374},
	{"Papaya", CategoryFruit, 1644},
	{"Piña", CategoryFruit, 1361},
	{"Banano", CategoryFruit, 3708},
	{"Guayaba", CategoryFruit, 2180},
	{"Maracuyá", CategoryFruit, 2081},
	{"Naranja", CategoryFruit, 2011},
	{"Limón", CategoryFruit, 1736},
	{"Mandarina", CategoryFruit, 3632},
	{"Manzana", CategoryFruit, 1614},
	{"Pera", CategoryFruit, 3496},
	{"Durazno", CategoryFruit, 3705},
	{"Aguacate", CategoryFruit, 3065},
	{"Tomate de Di", CategoryFruit, 1564},
	{"Mora", CategoryFruit, 3214},

	{"Lechuga", CategoryVegetable, 2862},
	{"Repollo", CategoryVegetable, 1384},
	{"Espinaca", CategoryVegetable, 1377},
	{"Tomate", CategoryVegetable, 1585},
	{"Pepino", CategoryVegetable, 1995},
	{"Calabacín", CategoryVegetable, 2041},
	{"Pimentón", CategoryVegetable, 2934},
	{"Zanahoria", CategoryVegetable, 3251},
	{"Remolacha", CategoryVegetable, 1366},
	{"Rábano", CategoryVegetable, 3118},
	{"Cebolla bl", CategoryVegetable, 1931},
	{"Cebolla rc", CategoryVegetable, 3625},
	{"Ajo", CategoryVegetable, 3408},
	{"Apio", CategoryVegetable, 3577},
	{"Cilantro", CategoryVegetable, 3065},
	{"Cebollín", CategoryVegetable, 2654},
	{"Ají", CategoryVegetable, 2001},
	{"Jengibre", CategoryVegetable, 2750},
	{"Yuca", CategoryVegetable, 3209},
	{"Ñame", CategoryVegetable, 2190},
	{"Brócoli", CategoryVegetable, 3921},
	{"Papa", CategoryVegetable, 1300},
	{"Plátano", CategoryVegetable, 3766},
	{"Ahuyama", CategoryVegetable, 3920},
}

const (
	seedStock       = 100
	seedDescription = "Producto fresco"
)

// SeedResult counts what Seed created.
type SeedResult struct {
	Categories int
	Products   int
}

// Seed creates the missing default categories and, when the products table
// is empty, the default catalog. It is safe to run repeatedly.
func Seed(ctx context.Context, s *Store) (SeedResult, error) {
	var res SeedResult

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	byName := map[string]string{}
	for _, c := range categories {
		byName[c.Name] = c.CategoryID
	}
	for _, name := range DefaultCategories {
		if _, ok := byName[name]; ok {
			continue
		}
		c, err := s.CreateCategory(ctx, name)
		if err != nil {
			return res, fmt.Errorf("seed category %s: %w", name, err)
		}
		byName[name] = c.CategoryID
		res.Categories++
	}

	products, err := s.List(ctx)
	if err != nil {
		return res, err
	}
	if len(products) > 0 {
		log.Printf("[seed] products table has %d items, skipping catalog", len(products))
		return res, nil
	}
	for _, sp := range DefaultProducts {
		_, err := s.Create(ctx, Product{
			Name:        sp.Name,
			Description: seedDescription,
			UnitPrice:   money.New(sp.Price),
			Stock:       seedStock,
			CategoryID:  byName[sp.Category],
			Unit:        UnitKg,
		})
		if err != nil {
			return res, fmt.Errorf("seed product %s: %w", sp.Name, err)
		}
		res.Products++
	}
	log.Printf("[seed] created categories=%d products=%d", res.Categories, res.Products)
	return res, nil
}
