package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/morningcafe/ordering-api/internal/config"
	"github.com/morningcafe/ordering-api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin display name")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *email == "" {
		*email = "admin@morningcafe.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Morning Cafe Admin"
	}

	// Same DATABASE_URL resolution as the server, so default runs of both
	// binaries land on the same database.
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := seedStatuses(ctx, tx); err != nil {
		log.Fatalf("Failed to seed order statuses: %v", err)
	}

	if err := seedMenu(ctx, tx); err != nil {
		log.Fatalf("Failed to seed menu: %v", err)
	}

	adminID, err := seedAdmin(ctx, tx, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Admin ID: %s", adminID)
}

// seedStatuses inserts the full status reference table. Codes are stable
// identifiers; re-running the seed leaves existing rows untouched.
func seedStatuses(ctx context.Context, tx pgx.Tx) error {
	statuses := []struct {
		code        string
		displayName string
		colorTag    string
	}{
		{enum.StatusPending, "Pending", "warning"},
		{enum.StatusConfirmed, "Confirmed", "info"},
		{enum.StatusPreparing, "Preparing", "primary"},
		{enum.StatusReady, "Ready", "success"},
		{enum.StatusCompleted, "Completed", "secondary"},
		{enum.StatusCancelled, "Cancelled", "danger"},
	}

	insertSQL := `
		INSERT INTO order_statuses (code, display_name, color_tag)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
	`
	for _, s := range statuses {
		if _, err := tx.Exec(ctx, insertSQL, s.code, s.displayName, s.colorTag); err != nil {
			return fmt.Errorf("insert status %s: %w", s.code, err)
		}
	}

	log.Printf("Seeded %d order statuses", len(statuses))
	return nil
}

// seedMenu creates the starter catalog: two categories, eight items and two
// option groups. Skipped entirely when any category already exists.
func seedMenu(ctx context.Context, tx pgx.Tx) error {
	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if count > 0 {
		log.Println("Menu already seeded, skipping")
		return nil
	}

	type item struct {
		name        string
		description string
		price       string
	}
	menu := []struct {
		category string
		items    []item
	}{
		{
			category: "Breakfast Sets",
			items: []item{
				{"Ham & Egg Sandwich", "Toasted sandwich with ham and a fried egg", "280"},
				{"Bacon Omelet Burger", "Brioche bun, three-egg omelet and crispy bacon", "320"},
				{"Cheese Egg Pancake Roll", "Savory pancake roll with egg and cheese", "260"},
				{"Pan-Fried Turnip Cake", "Two pieces with house soy glaze", "240"},
			},
		},
		{
			category: "Drinks",
			items: []item{
				{"Iced Milk Tea", "Black tea with fresh milk", "180"},
				{"Cafe Latte", "Double shot with steamed milk", "220"},
				{"Fresh Soy Milk", "Lightly sweetened, made daily", "150"},
				{"Black Tea", "Classic house brew", "130"},
			},
		},
	}

	var menuItemIDs []int64
	for ci, group := range menu {
		var categoryID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO categories (name, sort_order) VALUES ($1, $2) RETURNING id`,
			group.category, ci+1).Scan(&categoryID)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", group.category, err)
		}

		for ii, it := range group.items {
			var itemID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO menu_items (category_id, name, description, price, sort_order)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				categoryID, it.name, it.description, it.price, ii+1).Scan(&itemID)
			if err != nil {
				return fmt.Errorf("insert menu item %s: %w", it.name, err)
			}
			menuItemIDs = append(menuItemIDs, itemID)
		}
	}

	eggStyleID, err := seedOption(ctx, tx, "Egg Style", true, 1, []seedOptionItem{
		{"Sunny Side Up", "0"},
		{"Scrambled", "0"},
		{"No Egg", "0"},
	})
	if err != nil {
		return err
	}

	addOnsID, err := seedOption(ctx, tx, "Add-ons", false, 2, []seedOptionItem{
		{"Extra Cheese", "20"},
		{"Extra Ham", "30"},
	})
	if err != nil {
		return err
	}

	// Breakfast items get both option groups; drinks get none.
	for _, itemID := range menuItemIDs[:4] {
		for _, optionID := range []int64{eggStyleID, addOnsID} {
			if _, err := tx.Exec(ctx,
				`INSERT INTO menu_item_options (menu_item_id, option_id) VALUES ($1, $2)`,
				itemID, optionID); err != nil {
				return fmt.Errorf("link option %d to item %d: %w", optionID, itemID, err)
			}
		}
	}

	log.Printf("Seeded %d categories with %d menu items", len(menu), len(menuItemIDs))
	return nil
}

type seedOptionItem struct {
	name       string
	extraPrice string
}

func seedOption(ctx context.Context, tx pgx.Tx, name string, singleChoice bool, sortOrder int, items []seedOptionItem) (int64, error) {
	var optionID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO options (name, single_choice, sort_order) VALUES ($1, $2, $3) RETURNING id`,
		name, singleChoice, sortOrder).Scan(&optionID)
	if err != nil {
		return 0, fmt.Errorf("insert option %s: %w", name, err)
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO option_items (option_id, name, extra_price) VALUES ($1, $2, $3)`,
			optionID, it.name, it.extraPrice); err != nil {
			return 0, fmt.Errorf("insert option item %s: %w", it.name, err)
		}
	}

	return optionID, nil
}

// seedAdmin creates the admin user if it doesn't exist.
func seedAdmin(ctx context.Context, tx pgx.Tx, email, password, displayName string) (string, error) {
	var existingID string
	checkSQL := `SELECT id FROM users WHERE email = $1 LIMIT 1`
	err := tx.QueryRow(ctx, checkSQL, email).Scan(&existingID)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", email, existingID)
		return existingID, nil
	}
	if err != pgx.ErrNoRows {
		return "", fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	insertSQL := `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var newID string
	err = tx.QueryRow(ctx, insertSQL, email, string(hashed), displayName, enum.RoleAdmin).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created admin user '%s' (ID: %s)", email, newID)
	return newID, nil
}
