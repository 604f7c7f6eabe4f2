package bidding

import (
	"auction-site/internal/auctionerrors"
	"auction-site/internal/events"
	"auction-site/internal/models"
	"auction-site/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo      repository.AuctionDB
	publisher events.Publisher
	now       func() time.Time
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, publisher events.Publisher) *BiddingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BiddingService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceBid validates and records a user's bid on an auction
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID uint, amount int) (models.Bid, error) {
	now := s.now().UTC()
	if err := s.validateBid(ctx, auctionID, bidderID, amount, now); err != nil {
		return models.Bid{}, err
	}

	bid := models.Bid{
		AuctionID: auctionID,
		UserID:    bidderID,
		Amount:    amount,
		Timestamp: now,
	}

	if err := s.repo.RecordBid(ctx, &bid); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for auction %d by user %d: %w", auctionID, bidderID, err)
	}

	events.Emit(ctx, s.publisher, events.BidPlaced, events.BidEvent{
		AuctionID: bid.AuctionID,
		BidderID:  bid.UserID,
		Amount:    bid.Amount,
		Timestamp: bid.Timestamp,
	})
	return bid, nil
}

// validateBid checks input validity and business rules for bidding
func (s *BiddingService) validateBid(ctx context.Context, auctionID, bidderID uint, amount int, now time.Time) error {
	if auctionID == 0 || bidderID == 0 {
		return fmt.Errorf("service: %w - missing auction or bidder", auctionerrors.ErrInvalidBid)
	}
	if amount < 1 || amount > models.MaxMoney {
		return fmt.Errorf("service: %w - amount must be between 1 and %d", auctionerrors.ErrInvalidBid, models.MaxMoney)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to load auction %d: %w", auctionID, err)
	}
	if auction.SellerID == bidderID {
		return fmt.Errorf("service: %w", auctionerrors.ErrOwnAuction)
	}
	if !now.Before(auction.EndDate) {
		return fmt.Errorf("service: %w - ended at %s", auctionerrors.ErrAuctionClosed, auction.EndDate.Format(time.RFC3339))
	}

	highest, err := s.repo.GetHighestBid(ctx, auctionID)
	if err == nil {
		if amount <= highest.Amount {
			return fmt.Errorf("service: %w - current highest bid is %d", auctionerrors.ErrBidTooLow, highest.Amount)
		}
	} else if !errors.Is(err, auctionerrors.ErrNoBids) {
		return fmt.Errorf("service: failed to check highest bid: %w", err)
	}

	return nil
}

// GetBidsForAuction returns all bids for an auction, highest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID uint) ([]models.BidView, error) {
	if auctionID == 0 {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidID)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %d: %w", auctionID, err)
	}

	return bids, nil
}
