package models

import "time"

// MaxMoney is the largest reserve or bid amount the marketplace accepts (2^31 - 1)
const MaxMoney = 1<<31 - 1

// AuctionSummary is the listing row shown in search results
type AuctionSummary struct {
	AuctionID       uint      `json:"auctionId"`
	Title           string    `json:"title"`
	CategoryID      uint      `json:"categoryId"`
	SellerID        uint      `json:"sellerId"`
	SellerFirstName string    `json:"sellerFirstName"`
	SellerLastName  string    `json:"sellerLastName"`
	Reserve         int       `json:"reserve"`
	NumBids         int       `json:"numBids"`
	HighestBid      *int      `json:"highestBid"`
	EndDate         time.Time `json:"endDate"`
}

// AuctionDetail is a single auction with its description
type AuctionDetail struct {
	AuctionSummary
	Description string `json:"description"`
}

// AuctionPage is one page of search results plus the total number of matches
type AuctionPage struct {
	Auctions []AuctionSummary `json:"auctions"`
	Count    int              `json:"count"`
}

// BidView is a bid joined with the bidder's name
type BidView struct {
	BidderID  uint      `json:"bidderId"`
	Amount    int       `json:"amount"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Timestamp time.Time `json:"timestamp"`
}

// SortBy orders auction search results
type SortBy string

const (
	SortAlphabeticalAsc  SortBy = "ALPHABETICAL_ASC"
	SortAlphabeticalDesc SortBy = "ALPHABETICAL_DESC"
	SortBidsAsc          SortBy = "BIDS_ASC"
	SortBidsDesc         SortBy = "BIDS_DESC"
	SortClosingSoon      SortBy = "CLOSING_SOON"
	SortClosingLast      SortBy = "CLOSING_LAST"
	SortReserveAsc       SortBy = "RESERVE_ASC"
	SortReserveDesc      SortBy = "RESERVE_DESC"
)

// Valid reports whether s is one of the known sort orders
func (s SortBy) Valid() bool {
	switch s {
	case SortAlphabeticalAsc, SortAlphabeticalDesc, SortBidsAsc, SortBidsDesc,
		SortClosingSoon, SortClosingLast, SortReserveAsc, SortReserveDesc:
		return true
	}
	return false
}

// AuctionQuery filters, orders and pages auction searches.
// Zero values mean "no filter"; Count <= 0 returns every match from StartIndex.
type AuctionQuery struct {
	Q           string
	CategoryIDs []uint
	SellerID    uint
	BidderID    uint
	SortBy      SortBy
	StartIndex  int
	Count       int
}
