package repository

import (
	"auction-site/internal/auth"
	model "auction-site/internal/models"
	"context"
	"fmt"
	"time"
)

// DefaultCategories are restored on every reset
var DefaultCategories = []string{
	"Smartphones",
	"Computers & Laptops",
	"Books",
	"CDs",
	"DVDs",
	"Motorbikes",
	"Bicycles",
	"Farm Equipment",
	"Jewellery",
	"Homeware",
	"Furniture",
	"Watches",
	"Instruments",
	"Electronics",
	"Office Equipment",
	"Tablets",
	"Paintings & Sculptures",
	"Bulk Items",
	"Gaming Consoles",
	"Hair Care",
	"Perfume",
	"Clothing",
	"Lighting",
	"Gardening",
	"Fishing",
	"Pets",
}

// SamplePassword is the plain text password of every sample user
const SamplePassword = "password"

type sampleUser struct {
	email, firstName, lastName string
}

type sampleAuction struct {
	title, description, category string
	seller                       int // index into sampleUsers
	reserve                      int
	endsIn                       time.Duration
}

type sampleBid struct {
	auction, bidder int // indexes into sampleAuctions and sampleUsers
	amount          int
	ago             time.Duration
}

var sampleUsers = []sampleUser{
	{"bob.roberts@gmail.com", "Bob", "Roberts"},
	{"jane.doe@hotmail.com", "Jane", "Doe"},
	{"ra.kumar@uclive.ac.nz", "Ravi", "Kumar"},
	{"mei.chen@gmail.com", "Mei", "Chen"},
	{"tama.ngata@xtra.co.nz", "Tama", "Ngata"},
}

var sampleAuctions = []sampleAuction{
	{"Vintage road bike", "Steel frame, 12 speed, recently serviced.", "Bicycles", 0, 150, 72 * time.Hour},
	{"Gaming laptop", "16GB RAM, RTX graphics, light scratches on the lid.", "Computers & Laptops", 1, 900, 48 * time.Hour},
	{"Signed first edition", "Hardback first edition signed by the author.", "Books", 2, 60, 24 * time.Hour},
	{"Acoustic guitar", "Solid spruce top with hard case.", "Instruments", 3, 300, 120 * time.Hour},
	{"Oak dining table", "Seats six, some wear on the edges.", "Furniture", 4, 250, 240 * time.Hour},
	{"Retro games console", "Boxed with two controllers and five games.", "Gaming Consoles", 0, 80, -24 * time.Hour},
	{"Diver watch", "Automatic movement, 200m water resistance.", "Watches", 1, 400, 36 * time.Hour},
	{"Smartphone bundle", "Unlocked phone with charger and case.", "Smartphones", 2, 200, 96 * time.Hour},
}

var sampleBids = []sampleBid{
	{0, 1, 160, 5 * time.Hour},
	{0, 2, 175, 4 * time.Hour},
	{0, 3, 200, 2 * time.Hour},
	{1, 0, 950, 6 * time.Hour},
	{1, 4, 1000, 3 * time.Hour},
	{3, 2, 320, 1 * time.Hour},
	{5, 3, 90, 48 * time.Hour},
	{5, 4, 110, 30 * time.Hour},
	{6, 0, 410, 2 * time.Hour},
}

// loadSample inserts the sample data through the store interfaces so every backend seeds identically
func loadSample(ctx context.Context, users UserDB, auctions AuctionDB) error {
	hash, err := auth.HashPassword(SamplePassword)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}

	categories, err := auctions.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	categoryIDs := make(map[string]uint, len(categories))
	for _, c := range categories {
		categoryIDs[c.Name] = c.CategoryID
	}

	userIDs := make([]uint, len(sampleUsers))
	for i, su := range sampleUsers {
		if existing, err := users.GetUserByEmail(ctx, su.email); err == nil {
			userIDs[i] = existing.UserID
			continue
		}
		u := model.User{Email: su.email, FirstName: su.firstName, LastName: su.lastName, Password: hash}
		if err := users.CreateUser(ctx, &u); err != nil {
			return fmt.Errorf("resample user %s: %w", su.email, err)
		}
		userIDs[i] = u.UserID
	}

	now := time.Now().UTC().Truncate(time.Second)
	auctionIDs := make([]uint, len(sampleAuctions))
	for i, sa := range sampleAuctions {
		categoryID, ok := categoryIDs[sa.category]
		if !ok {
			return fmt.Errorf("resample auction %q: unknown category %q", sa.title, sa.category)
		}
		a := model.Auction{
			Title:       sa.title,
			Description: sa.description,
			EndDate:     now.Add(sa.endsIn),
			Reserve:     sa.reserve,
			SellerID:    userIDs[sa.seller],
			CategoryID:  categoryID,
		}
		if err := auctions.CreateAuction(ctx, &a); err != nil {
			return fmt.Errorf("resample auction %q: %w", sa.title, err)
		}
		auctionIDs[i] = a.AuctionID
	}

	for _, sb := range sampleBids {
		b := model.Bid{
			AuctionID: auctionIDs[sb.auction],
			UserID:    userIDs[sb.bidder],
			Amount:    sb.amount,
			Timestamp: now.Add(-sb.ago),
		}
		if err := auctions.RecordBid(ctx, &b); err != nil {
			return fmt.Errorf("resample bid on %d: %w", b.AuctionID, err)
		}
	}
	return nil
}
