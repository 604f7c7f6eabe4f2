package auctions

import (
	"auction-site/internal/auctionerrors"
	"auction-site/internal/events"
	"auction-site/internal/imagestore"
	"auction-site/internal/models"
	"auction-site/internal/repository"
	"auction-site/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuctionService holds the listing, search and seller-side rules for auctions
type AuctionService struct {
	repo      repository.AuctionDB
	images    imagestore.Store
	publisher events.Publisher
	now       func() time.Time
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, images imagestore.Store, publisher events.Publisher) *AuctionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuctionService{
		repo:      repo,
		images:    images,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateInput holds a new listing. A nil Reserve defaults to 1.
type CreateInput struct {
	Title       string
	Description string
	CategoryID  uint
	EndDate     time.Time
	Reserve     *int
}

// UpdateInput carries the fields to change; nil fields are left alone
type UpdateInput struct {
	Title       *string
	Description *string
	CategoryID  *uint
	EndDate     *time.Time
	Reserve     *int
}

// ListAuctions searches auctions. An empty sort order means closing soonest first.
func (s *AuctionService) ListAuctions(ctx context.Context, query models.AuctionQuery) (models.AuctionPage, error) {
	if query.SortBy == "" {
		query.SortBy = models.SortClosingSoon
	}
	if !query.SortBy.Valid() {
		return models.AuctionPage{}, fmt.Errorf("service: %w - unknown sortBy %q", auctionerrors.ErrInvalidQuery, query.SortBy)
	}
	if query.StartIndex < 0 || query.Count < 0 {
		return models.AuctionPage{}, fmt.Errorf("service: %w - startIndex and count must not be negative", auctionerrors.ErrInvalidQuery)
	}
	for _, id := range query.CategoryIDs {
		if _, err := s.repo.GetCategory(ctx, id); err != nil {
			if errors.Is(err, auctionerrors.ErrCategoryNotFound) {
				return models.AuctionPage{}, fmt.Errorf("service: %w - unknown category %d", auctionerrors.ErrInvalidQuery, id)
			}
			return models.AuctionPage{}, fmt.Errorf("service: failed to check category %d: %w", id, err)
		}
	}

	page, err := s.repo.SearchAuctions(ctx, query)
	if err != nil {
		return models.AuctionPage{}, fmt.Errorf("service: failed to search auctions: %w", err)
	}
	return page, nil
}

func (s *AuctionService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateAuction validates and stores a listing, returning its id
func (s *AuctionService) CreateAuction(ctx context.Context, sellerID uint, in CreateInput) (uint, error) {
	reserve := 1
	if in.Reserve != nil {
		reserve = *in.Reserve
	}
	auction := models.Auction{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		EndDate:     in.EndDate.UTC(),
		Reserve:     reserve,
		SellerID:    sellerID,
	}
	if err := s.validate(ctx, auction); err != nil {
		return 0, err
	}

	if err := s.repo.CreateAuction(ctx, &auction); err != nil {
		return 0, fmt.Errorf("service: failed to create auction: %w", err)
	}

	events.Emit(ctx, s.publisher, events.AuctionCreated, events.AuctionEvent{
		AuctionID: auction.AuctionID,
		SellerID:  auction.SellerID,
		Title:     auction.Title,
	})
	return auction.AuctionID, nil
}

// validate applies the listing rules shared by create and update
func (s *AuctionService) validate(ctx context.Context, a models.Auction) error {
	if a.SellerID == 0 {
		return fmt.Errorf("service: %w - missing seller", auctionerrors.ErrInvalidAuction)
	}
	if a.Title == "" {
		return fmt.Errorf("service: %w - title is required", auctionerrors.ErrInvalidAuction)
	}
	if a.Description == "" {
		return fmt.Errorf("service: %w - description is required", auctionerrors.ErrInvalidAuction)
	}
	if a.Reserve < 1 || a.Reserve > models.MaxMoney {
		return fmt.Errorf("service: %w - reserve must be between 1 and %d", auctionerrors.ErrInvalidAuction, models.MaxMoney)
	}
	if !a.EndDate.After(s.now()) {
		return fmt.Errorf("service: %w - end date must be in the future", auctionerrors.ErrInvalidAuction)
	}
	if _, err := s.repo.GetCategory(ctx, a.CategoryID); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (s *AuctionService) GetAuction(ctx context.Context, auctionID uint) (models.AuctionDetail, error) {
	detail, err := s.repo.GetAuctionDetail(ctx, auctionID)
	if err != nil {
		return models.AuctionDetail{}, fmt.Errorf("service: failed to get auction %d: %w", auctionID, err)
	}
	return detail, nil
}

// editable loads an auction the requester may still change: they must be the seller and nobody may have bid yet.
// The store repeats the bid check atomically with the write.
func (s *AuctionService) editable(ctx context.Context, auctionID, requesterID uint) (models.Auction, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %d: %w", auctionID, err)
	}
	if auction.SellerID != requesterID {
		return models.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrNotSeller)
	}
	_, err = s.repo.GetHighestBid(ctx, auctionID)
	switch {
	case err == nil:
		return models.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionHasBids)
	case !errors.Is(err, auctionerrors.ErrNoBids):
		return models.Auction{}, fmt.Errorf("service: failed to check bids on auction %d: %w", auctionID, err)
	}
	return auction, nil
}

// UpdateAuction applies a partial update for the seller while the auction has no bids
func (s *AuctionService) UpdateAuction(ctx context.Context, auctionID, requesterID uint, in UpdateInput) error {
	auction, err := s.editable(ctx, auctionID, requesterID)
	if err != nil {
		return err
	}

	if in.Title != nil {
		auction.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		auction.Description = strings.TrimSpace(*in.Description)
	}
	if in.CategoryID != nil {
		auction.CategoryID = *in.CategoryID
	}
	if in.EndDate != nil {
		auction.EndDate = in.EndDate.UTC()
	}
	if in.Reserve != nil {
		auction.Reserve = *in.Reserve
	}
	if err := s.validate(ctx, auction); err != nil {
		return err
	}

	if err := s.repo.UpdateAuction(ctx, auction); err != nil {
		return fmt.Errorf("service: failed to update auction %d: %w", auctionID, err)
	}
	events.Emit(ctx, s.publisher, events.AuctionUpdated, events.AuctionEvent{
		AuctionID: auction.AuctionID,
		SellerID:  auction.SellerID,
		Title:     auction.Title,
	})
	return nil
}

// DeleteAuction removes the seller's auction and its image while it has no bids
func (s *AuctionService) DeleteAuction(ctx context.Context, auctionID, requesterID uint) error {
	auction, err := s.editable(ctx, auctionID, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %d: %w", auctionID, err)
	}
	if auction.ImageFilename != "" {
		if err := s.images.Delete(auction.ImageFilename); err != nil {
			utils.Warn("failed to remove auction image", map[string]any{"auctionID": auctionID, "file": auction.ImageFilename, "error": err.Error()})
		}
	}
	events.Emit(ctx, s.publisher, events.AuctionDeleted, events.AuctionEvent{
		AuctionID: auction.AuctionID,
		SellerID:  auction.SellerID,
	})
	return nil
}

// GetImage returns the auction's hero image
func (s *AuctionService) GetImage(ctx context.Context, auctionID uint) (imagestore.Image, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return imagestore.Image{}, fmt.Errorf("service: failed to get auction %d: %w", auctionID, err)
	}
	if auction.ImageFilename == "" {
		return imagestore.Image{}, fmt.Errorf("service: auction %d: %w", auctionID, auctionerrors.ErrImageNotFound)
	}
	img, err := s.images.Load(auction.ImageFilename)
	if err != nil {
		return imagestore.Image{}, fmt.Errorf("service: %w", err)
	}
	return img, nil
}

// SetImage stores the auction's image; only the seller may do this. created reports whether there was no image before.
func (s *AuctionService) SetImage(ctx context.Context, auctionID, requesterID uint, data []byte, contentType string) (bool, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return false, fmt.Errorf("service: failed to get auction %d: %w", auctionID, err)
	}
	if auction.SellerID != requesterID {
		return false, fmt.Errorf("service: %w", auctionerrors.ErrNotSeller)
	}

	filename, err := s.images.Save(fmt.Sprintf("auction_%d", auctionID), data, contentType)
	if err != nil {
		return false, fmt.Errorf("service: %w", err)
	}
	previous := auction.ImageFilename
	if err := s.repo.SetAuctionImage(ctx, auctionID, filename); err != nil {
		_ = s.images.Delete(filename)
		return false, fmt.Errorf("service: failed to set image for auction %d: %w", auctionID, err)
	}
	if previous != "" {
		if err := s.images.Delete(previous); err != nil {
			utils.Warn("failed to remove replaced image", map[string]any{"auctionID": auctionID, "file": previous, "error": err.Error()})
		}
	}
	return previous == "", nil
}
