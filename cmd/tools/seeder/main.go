package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

type seedProduct struct {
	name          string
	slug          string
	description   string
	basePrice     string
	discountPrice sql.NullString
	category      string
	gender        string
	concentration string
	topNotes      []string
	middleNotes   []string
	baseNotes     []string
	sizes         []int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedAdmin(db)
	categories := seedCategories(db)
	seedProducts(db, categories)

	log.Println("Seeding complete")
}

func seedAdmin(db *sql.DB) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@214scents.com"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme-now"
		log.Println("SEED_ADMIN_PASSWORD not set, using a placeholder. Change it immediately.")
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO users (name, email, password_hash, role)
		VALUES ('Store Admin', $1, $2, 'ADMIN')
		ON CONFLICT (email) DO NOTHING;
	`, email, hash)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("Admin user ready: %s", email)
}

func seedCategories(db *sql.DB) map[string]string {
	categories := []struct {
		name, slug, description string
		order                   int
	}{
		{"Floral", "floral", "Rose, jasmine and white flower compositions", 1},
		{"Woody", "woody", "Sandalwood, cedar and vetiver based scents", 2},
		{"Oriental", "oriental", "Amber, oud and warm spice blends", 3},
		{"Fresh", "fresh", "Citrus, aquatic and green fragrances", 4},
	}

	ids := make(map[string]string, len(categories))
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug, description, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
			RETURNING id;
		`, c.name, c.slug, c.description, c.order).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed category %s: %v", c.slug, err)
		}
		ids[c.slug] = id
	}
	log.Printf("Seeded %d categories", len(categories))
	return ids
}

func seedProducts(db *sql.DB, categories map[string]string) {
	products := []seedProduct{
		{
			name: "Midnight Bloom", slug: "midnight-bloom",
			description: "A nocturnal floral built around night-blooming jasmine.",
			basePrice:   "159.99", discountPrice: sql.NullString{String: "129.99", Valid: true},
			category: "floral", gender: "WOMEN", concentration: "EDP",
			topNotes: []string{"bergamot", "pink pepper"}, middleNotes: []string{"jasmine", "tuberose"},
			baseNotes: []string{"musk", "vanilla"}, sizes: []int{30, 50, 100},
		},
		{
			name: "Cedar Atlas", slug: "cedar-atlas",
			description: "Dry cedarwood sharpened with incense and a saffron top.",
			basePrice:   "139.99",
			category:    "woody", gender: "MEN", concentration: "EDP",
			topNotes: []string{"saffron", "cardamom"}, middleNotes: []string{"atlas cedar", "cypriol"},
			baseNotes: []string{"vetiver", "labdanum"}, sizes: []int{50, 100},
		},
		{
			name: "Amber Reverie", slug: "amber-reverie",
			description: "Resinous amber folded into smoked oud and rose.",
			basePrice:   "189.99",
			category:    "oriental", gender: "UNISEX", concentration: "PARFUM",
			topNotes: []string{"rose", "cinnamon"}, middleNotes: []string{"oud", "benzoin"},
			baseNotes: []string{"amber", "tonka bean"}, sizes: []int{50, 100},
		},
		{
			name: "Citrus Line", slug: "citrus-line",
			description: "A bright vertical of yuzu, neroli and crushed mint.",
			basePrice:   "99.99", discountPrice: sql.NullString{String: "79.99", Valid: true},
			category: "fresh", gender: "UNISEX", concentration: "EDT",
			topNotes: []string{"yuzu", "mint"}, middleNotes: []string{"neroli", "green tea"},
			baseNotes: []string{"white musk"}, sizes: []int{30, 50, 100},
		},
	}

	for _, p := range products {
		categoryID, ok := categories[p.category]
		if !ok {
			log.Fatalf("Unknown category %q for product %s", p.category, p.slug)
		}
		var productID string
		err := db.QueryRow(`
			INSERT INTO products (name, slug, description, base_price, discount_price, category_id,
				gender, concentration, top_notes, middle_notes, base_notes, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
			ON CONFLICT (slug) DO UPDATE SET
				description = EXCLUDED.description,
				base_price = EXCLUDED.base_price,
				discount_price = EXCLUDED.discount_price
			RETURNING id;
		`, p.name, p.slug, p.description, p.basePrice, p.discountPrice, categoryID,
			p.gender, p.concentration, pq.Array(p.topNotes), pq.Array(p.middleNotes), pq.Array(p.baseNotes)).Scan(&productID)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.slug, err)
		}

		for _, size := range p.sizes {
			sku := fmt.Sprintf("%s-%dML", p.slug, size)
			_, err := db.Exec(`
				INSERT INTO product_variants (product_id, size, stock, sku)
				VALUES ($1, $2, 100, $3)
				ON CONFLICT (product_id, size) DO NOTHING;
			`, productID, size, sku)
			if err != nil {
				log.Fatalf("Failed to seed variant %s: %v", sku, err)
			}
		}
	}
	log.Printf("Seeded %d products", len(products))
}
