package helpers

import (
	auctions "auction-site/internal/auctionService"
	"auction-site/services/common"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	CategoryID  uint   `json:"categoryId" binding:"required"`
	EndDate     string `json:"endDate" binding:"required"`
	Reserve     *int   `json:"reserve"`
}

// UpdateAuctionRequest is a partial update; absent fields stay unchanged
type UpdateAuctionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"categoryId"`
	EndDate     *string `json:"endDate"`
	Reserve     *int    `json:"reserve"`
}

type CreateAuctionResponse struct {
	AuctionID uint `json:"auctionId"`
}

func (r CreateAuctionRequest) Input() (auctions.CreateInput, error) {
	endDate, err := common.ParseDate(r.EndDate)
	if err != nil {
		return auctions.CreateInput{}, err
	}
	return auctions.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		EndDate:     endDate,
		Reserve:     r.Reserve,
	}, nil
}

func (r UpdateAuctionRequest) Input() (auctions.UpdateInput, error) {
	in := auctions.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Reserve:     r.Reserve,
	}
	if r.EndDate != nil {
		endDate, err := common.ParseDate(*r.EndDate)
		if err != nil {
			return auctions.UpdateInput{}, err
		}
		in.EndDate = &endDate
	}
	return in, nil
}

// Empty reports whether the request changes nothing
func (r UpdateAuctionRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.CategoryID == nil && r.EndDate == nil && r.Reserve == nil
}
