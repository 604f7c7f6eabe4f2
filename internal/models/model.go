package models

import "time"

// User represents a registered participant in the marketplace
type User struct {
	UserID        uint    `json:"userId" gorm:"column:id;primaryKey;autoIncrement"`
	Email         string  `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	FirstName     string  `json:"firstName" gorm:"type:varchar(64);not null"`
	LastName      string  `json:"lastName" gorm:"type:varchar(64);not null"`
	Password      string  `json:"-" gorm:"type:varchar(256);not null"`
	AuthToken     *string `json:"-" gorm:"type:varchar(512);uniqueIndex"`
	ImageFilename string  `json:"-" gorm:"type:varchar(128)"`
}

func (User) TableName() string {
	return "users"
}

// Category groups auctions for browsing
type Category struct {
	CategoryID uint   `json:"categoryId" gorm:"column:id;primaryKey;autoIncrement"`
	Name       string `json:"name" gorm:"type:varchar(64);uniqueIndex;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// Auction represents a listing with a reserve price and a closing date
type Auction struct {
	AuctionID     uint      `json:"auctionId" gorm:"column:id;primaryKey;autoIncrement"`
	Title         string    `json:"title" gorm:"type:varchar(128);not null"`
	Description   string    `json:"description" gorm:"type:text;not null"`
	EndDate       time.Time `json:"endDate" gorm:"not null;index"`
	ImageFilename string    `json:"-" gorm:"type:varchar(128)"`
	Reserve       int       `json:"reserve" gorm:"not null;default:1"`
	SellerID      uint      `json:"sellerId" gorm:"not null;index"`
	CategoryID    uint      `json:"categoryId" gorm:"not null;index"`
}

func (Auction) TableName() string {
	return "auctions"
}

// Bid represents a user's offer on an auction
type Bid struct {
	BidID     uint      `json:"bidId" gorm:"column:id;primaryKey;autoIncrement"`
	AuctionID uint      `json:"auctionId" gorm:"not null;index"`
	UserID    uint      `json:"userId" gorm:"not null;index"`
	Amount    int       `json:"amount" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

func (Bid) TableName() string {
	return "bids"
}
