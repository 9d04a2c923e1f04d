package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name        string
	Description string
	Basic       int64
	Tags        []string
}

type seedCategory struct {
	Name     string
	Products []seedProduct
}

var catalog = []seedCategory{
	{Name: "Web Application", Products: []seedProduct{
		{"Inventory Dashboard", "Stock tracking dashboard with role based access and CSV export.", 1500000, []string{"react", "go"}},
		{"Booking Portal", "Reservation site with calendar slots and email reminders.", 1800000, []string{"nextjs", "postgres"}},
	}},
	{Name: "Mobile Application", Products: []seedProduct{
		{"Habit Tracker", "Cross platform habit tracker with streaks and push reminders.", 1200000, []string{"flutter"}},
		{"Field Survey App", "Offline first survey collection with photo upload.", 2200000, []string{"kotlin", "offline"}},
	}},
	{Name: "Machine Learning", Products: []seedProduct{
		{"Churn Predictor", "Customer churn model with a small scoring API.", 2500000, []string{"python", "ml"}},
	}},
	{Name: "Internet of Things", Products: []seedProduct{
		{"Greenhouse Monitor", "Sensor firmware and a web panel for humidity and temperature.", 2000000, []string{"esp32", "mqtt"}},
	}},
	{Name: "Game", Products: []seedProduct{
		{"Puzzle Platformer", "2D platformer prototype with ten levels.", 1700000, []string{"unity"}},
	}},
}

func seedCmd() *cobra.Command {
	var sellerEmail string
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample categories and products owned by a seller",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			n, err := seedCatalog(cmd.Context(), conn, sellerEmail, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&sellerEmail, "seller-email", "", "email of the seller owning the sample products")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when products already exist")
	_ = cmd.MarkFlagRequired("seller-email")
	return cmd
}

// seedCatalog returns the number of products inserted. Existing categories are reused.
func seedCatalog(ctx context.Context, conn *gorm.DB, sellerEmail string, force bool) (int, error) {
	seller, err := repository.NewUserRepository(conn).FindByEmail(ctx, sellerEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("seller %s not found", sellerEmail)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup seller: %w", err)
	}
	if seller.Role != model.RoleSeller {
		return 0, fmt.Errorf("user %s has role %s, want %s", sellerEmail, seller.Role, model.RoleSeller)
	}

	var existing int64
	if err := conn.WithContext(ctx).Model(&model.Product{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if existing > 0 && !force {
		log.Printf("[seed] products already exist count=%d; skipping (use --force to override)", existing)
		return 0, nil
	}

	inserted := 0
	err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := repository.NewCategoryRepository(tx)
		products := repository.NewProductRepository(tx)
		for _, sc := range catalog {
			cat, err := categories.FindByName(ctx, sc.Name)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cat = &model.Category{Name: sc.Name}
				err = categories.Create(ctx, cat)
			}
			if err != nil {
				return fmt.Errorf("category %q: %w", sc.Name, err)
			}
			for i, sp := range sc.Products {
				image := picsumURL(sc.Name, i+1, 600)
				p := &model.Product{
					Name:        sp.Name,
					Description: sp.Description,
					CategoryID:  cat.ID,
					Price: model.PriceTiers{
						Complete:  decimal.NewFromInt(sp.Basic * 2),
						Basic:     decimal.NewFromInt(sp.Basic),
						Prototype: decimal.NewFromInt(sp.Basic / 2),
					},
					Image:     model.Asset{URL: image},
					Thumbnail: model.Asset{URL: picsumURL(sc.Name, i+1, 200)},
					Tags:      sp.Tags,
					SellerID:  seller.ID,
					Available: true,
				}
				if err := products.Create(ctx, p); err != nil {
					return fmt.Errorf("product %q: %w", sp.Name, err)
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[seed] inserted products=%d seller_id=%d", inserted, seller.ID)
	return inserted, nil
}

func picsumURL(seed string, index, size int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/%d/%d", url.PathEscape(seed), index, size, size)
}
