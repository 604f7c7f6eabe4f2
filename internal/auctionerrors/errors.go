package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrImageNotFound    = errors.New("image not found")
	ErrNoBids           = errors.New("no bids found for auction")
	ErrEmailInUse       = errors.New("email already in use")
)

// validation errors
var (
	ErrInvalidUser      = errors.New("invalid user details")
	ErrInvalidAuction   = errors.New("invalid auction details")
	ErrInvalidBid       = errors.New("invalid bid")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrInvalidID        = errors.New("invalid id")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// business logic errors
var (
	ErrForbidden      = errors.New("forbidden")
	ErrNotSeller      = errors.New("only the seller may modify this auction")
	ErrAuctionHasBids = errors.New("auction already has bids")
	ErrOwnAuction     = errors.New("cannot bid on your own auction")
	ErrAuctionClosed  = errors.New("auction has closed")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrWrongPassword  = errors.New("current password is incorrect")
)
