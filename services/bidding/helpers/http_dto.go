package helpers

import (
	"time"

	model "auction-site/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount int `json:"amount" binding:"required,gt=0,max=2147483647"`
}

type BidResponse struct {
	BidID     uint   `json:"bidId"`
	AuctionID uint   `json:"auctionId"`
	BidderID  uint   `json:"bidderId"`
	Amount    int    `json:"amount"`
	Timestamp string `json:"timestamp"`
}

// NewBidResponse converts a stored bid to its response shape
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.UserID,
		Amount:    bid.Amount,
		Timestamp: bid.Timestamp.UTC().Format(time.RFC3339),
	}
}
