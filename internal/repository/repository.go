package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"auction-site/internal/auctionerrors"
	model "auction-site/internal/models"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// UserDB defines the user storage interface
type UserDB interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID uint) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByToken(ctx context.Context, token string) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	// SetAuthToken stores the user's current token; an empty token logs the user out
	SetAuthToken(ctx context.Context, userID uint, token string) error
}

// AuctionDB defines the auction, category and bid storage interface
type AuctionDB interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, categoryID uint) (model.Category, error)
	CreateAuction(ctx context.Context, auction *model.Auction) error
	GetAuction(ctx context.Context, auctionID uint) (model.Auction, error)
	GetAuctionDetail(ctx context.Context, auctionID uint) (model.AuctionDetail, error)
	SearchAuctions(ctx context.Context, query model.AuctionQuery) (model.AuctionPage, error)
	// UpdateAuction and DeleteAuction fail with ErrAuctionHasBids once a bid exists
	UpdateAuction(ctx context.Context, auction model.Auction) error
	DeleteAuction(ctx context.Context, auctionID uint) error
	SetAuctionImage(ctx context.Context, auctionID uint, filename string) error
	// RecordBid stores bid only if it is strictly higher than the current highest bid
	RecordBid(ctx context.Context, bid *model.Bid) error
	GetBidsByAuction(ctx context.Context, auctionID uint) ([]model.BidView, error)
	GetHighestBid(ctx context.Context, auctionID uint) (model.Bid, error)
}

// Seeder restores a store to a known state
type Seeder interface {
	Reset(ctx context.Context) error
	Resample(ctx context.Context) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of UserDB, AuctionDB and Seeder
type MemoryRepo struct {
	mu         sync.RWMutex
	users      map[uint]model.User
	categories map[uint]model.Category
	auctions   map[uint]model.Auction
	bids       map[uint][]model.Bid // key: auctionID -> value: bids in insertion order
	nextID     struct{ user, category, auction, bid uint }
}

// NewMemoryRepo creates an empty repository holding the default categories
func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{}
	r.clear()
	return r
}

// clear must be called with the write lock held
func (r *MemoryRepo) clear() {
	r.users = make(map[uint]model.User)
	r.categories = make(map[uint]model.Category)
	r.auctions = make(map[uint]model.Auction)
	r.bids = make(map[uint][]model.Bid)
	r.nextID.user, r.nextID.category, r.nextID.auction, r.nextID.bid = 0, 0, 0, 0
	for _, name := range DefaultCategories {
		r.nextID.category++
		r.categories[r.nextID.category] = model.Category{CategoryID: r.nextID.category, Name: name}
	}
}

// CreateUser stores a new user and assigns its id
func (r *MemoryRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailInUse)
	}
	r.nextID.user++
	user.UserID = r.nextID.user
	r.users[user.UserID] = *user
	return nil
}

func (r *MemoryRepo) GetUser(_ context.Context, userID uint) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("get user by email %s: %w", email, auctionerrors.ErrUserNotFound)
}

func (r *MemoryRepo) GetUserByToken(_ context.Context, token string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token != "" {
		for _, u := range r.users {
			if u.AuthToken != nil && *u.AuthToken == token {
				return u, nil
			}
		}
	}
	return model.User{}, fmt.Errorf("get user by token: %w", auctionerrors.ErrUserNotFound)
}

// UpdateUser replaces the stored profile with the same id. The auth token is
// only ever changed through SetAuthToken.
func (r *MemoryRepo) UpdateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.UserID]
	if !ok {
		return fmt.Errorf("update user %d: %w", user.UserID, auctionerrors.ErrUserNotFound)
	}
	if r.emailTaken(user.Email, user.UserID) {
		return fmt.Errorf("update user %d: %w", user.UserID, auctionerrors.ErrEmailInUse)
	}
	user.AuthToken = current.AuthToken
	r.users[user.UserID] = user
	return nil
}

func (r *MemoryRepo) SetAuthToken(_ context.Context, userID uint, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("set auth token for user %d: %w", userID, auctionerrors.ErrUserNotFound)
	}
	if token == "" {
		user.AuthToken = nil
	} else {
		user.AuthToken = &token
	}
	r.users[userID] = user
	return nil
}

// emailTaken must be called with the lock held
func (r *MemoryRepo) emailTaken(email string, exceptID uint) bool {
	for id, u := range r.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// ListCategories returns every category ordered by id
func (r *MemoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].CategoryID < categories[j].CategoryID })
	return categories, nil
}

func (r *MemoryRepo) GetCategory(_ context.Context, categoryID uint) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[categoryID]
	if !ok {
		return model.Category{}, fmt.Errorf("get category %d: %w", categoryID, auctionerrors.ErrCategoryNotFound)
	}
	return c, nil
}

// CreateAuction stores a new auction and assigns its id
func (r *MemoryRepo) CreateAuction(_ context.Context, auction *model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkReferences(*auction); err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	r.nextID.auction++
	auction.AuctionID = r.nextID.auction
	r.auctions[auction.AuctionID] = *auction
	return nil
}

func (r *MemoryRepo) GetAuction(_ context.Context, auctionID uint) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

func (r *MemoryRepo) GetAuctionDetail(_ context.Context, auctionID uint) (model.AuctionDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.AuctionDetail{}, fmt.Errorf("get auction detail %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return model.AuctionDetail{AuctionSummary: r.summarize(a), Description: a.Description}, nil
}

// SearchAuctions filters, sorts and pages auctions
func (r *MemoryRepo) SearchAuctions(_ context.Context, query model.AuctionQuery) (model.AuctionPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query.Q))
	matches := make([]model.AuctionSummary, 0)
	for _, a := range r.auctions {
		if q != "" && !strings.Contains(strings.ToLower(a.Title), q) && !strings.Contains(strings.ToLower(a.Description), q) {
			continue
		}
		if len(query.CategoryIDs) > 0 && !containsID(query.CategoryIDs, a.CategoryID) {
			continue
		}
		if query.SellerID != 0 && a.SellerID != query.SellerID {
			continue
		}
		if query.BidderID != 0 && !r.hasBidFrom(a.AuctionID, query.BidderID) {
			continue
		}
		matches = append(matches, r.summarize(a))
	}

	sortSummaries(matches, query.SortBy)
	page := model.AuctionPage{Count: len(matches)}
	page.Auctions = paginate(matches, query.StartIndex, query.Count)
	return page, nil
}

// UpdateAuction replaces the stored auction with the same id while it has no bids. The image is kept.
func (r *MemoryRepo) UpdateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.auctions[auction.AuctionID]
	if !ok {
		return fmt.Errorf("update auction %d: %w", auction.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if len(r.bids[auction.AuctionID]) > 0 {
		return fmt.Errorf("update auction %d: %w", auction.AuctionID, auctionerrors.ErrAuctionHasBids)
	}
	if err := r.checkReferences(auction); err != nil {
		return fmt.Errorf("update auction %d: %w", auction.AuctionID, err)
	}
	auction.ImageFilename = current.ImageFilename
	r.auctions[auction.AuctionID] = auction
	return nil
}

// DeleteAuction removes an auction nobody has bid on
func (r *MemoryRepo) DeleteAuction(_ context.Context, auctionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if len(r.bids[auctionID]) > 0 {
		return fmt.Errorf("delete auction %d: %w", auctionID, auctionerrors.ErrAuctionHasBids)
	}
	delete(r.auctions, auctionID)
	delete(r.bids, auctionID)
	return nil
}

func (r *MemoryRepo) SetAuctionImage(_ context.Context, auctionID uint, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set image for auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	auction.ImageFilename = filename
	r.auctions[auctionID] = auction
	return nil
}

// RecordBid appends a bid after checking it beats the current highest amount
func (r *MemoryRepo) RecordBid(_ context.Context, bid *model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("record bid for auction %d: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if _, ok := r.users[bid.UserID]; !ok {
		return fmt.Errorf("record bid for auction %d: %w", bid.AuctionID, auctionerrors.ErrUserNotFound)
	}
	if highest, ok := r.highest(bid.AuctionID); ok && bid.Amount <= highest.Amount {
		return fmt.Errorf("record bid of %d for auction %d (highest %d): %w",
			bid.Amount, bid.AuctionID, highest.Amount, auctionerrors.ErrBidTooLow)
	}
	if bid.Timestamp.IsZero() {
		bid.Timestamp = time.Now().UTC()
	}
	r.nextID.bid++
	bid.BidID = r.nextID.bid
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], *bid)
	return nil
}

// GetBidsByAuction returns the auction's bids, highest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID uint) ([]model.BidView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	bids := r.bids[auctionID]
	views := make([]model.BidView, 0, len(bids))
	for _, b := range bids {
		bidder := r.users[b.UserID]
		views = append(views, model.BidView{
			BidderID:  b.UserID,
			Amount:    b.Amount,
			FirstName: bidder.FirstName,
			LastName:  bidder.LastName,
			Timestamp: b.Timestamp,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Amount != views[j].Amount {
			return views[i].Amount > views[j].Amount
		}
		return views[i].Timestamp.Before(views[j].Timestamp)
	})
	return views, nil
}

// GetHighestBid returns the winning bid so far
func (r *MemoryRepo) GetHighestBid(_ context.Context, auctionID uint) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	highest, ok := r.highest(auctionID)
	if !ok {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %d: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return highest, nil
}

// highest picks the largest amount, the earliest bid winning ties
func (r *MemoryRepo) highest(auctionID uint) (model.Bid, bool) {
	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.Timestamp.Before(winning.Timestamp)) {
			winning = b
		}
	}
	return winning, true
}

func (r *MemoryRepo) hasBidFrom(auctionID, userID uint) bool {
	for _, b := range r.bids[auctionID] {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) checkReferences(a model.Auction) error {
	if _, ok := r.categories[a.CategoryID]; !ok {
		return fmt.Errorf("category %d: %w", a.CategoryID, auctionerrors.ErrCategoryNotFound)
	}
	if _, ok := r.users[a.SellerID]; !ok {
		return fmt.Errorf("seller %d: %w", a.SellerID, auctionerrors.ErrUserNotFound)
	}
	return nil
}

func (r *MemoryRepo) summarize(a model.Auction) model.AuctionSummary {
	seller := r.users[a.SellerID]
	s := model.AuctionSummary{
		AuctionID:       a.AuctionID,
		Title:           a.Title,
		CategoryID:      a.CategoryID,
		SellerID:        a.SellerID,
		SellerFirstName: seller.FirstName,
		SellerLastName:  seller.LastName,
		Reserve:         a.Reserve,
		NumBids:         len(r.bids[a.AuctionID]),
		EndDate:         a.EndDate,
	}
	if highest, ok := r.highest(a.AuctionID); ok {
		amount := highest.Amount
		s.HighestBid = &amount
	}
	return s
}

// Reset drops every user, auction and bid and restores the default categories
func (r *MemoryRepo) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
	return nil
}

// Resample adds the sample users, auctions and bids
func (r *MemoryRepo) Resample(ctx context.Context) error {
	return loadSample(ctx, r, r)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func highestOrZero(s model.AuctionSummary) int {
	if s.HighestBid == nil {
		return 0
	}
	return *s.HighestBid
}

// sortSummaries orders search results; ties fall back to auction id
func sortSummaries(rows []model.AuctionSummary, by model.SortBy) {
	less := func(i, j int) (bool, bool) {
		a, b := rows[i], rows[j]
		switch by {
		case model.SortAlphabeticalAsc:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			return at < bt, at == bt
		case model.SortAlphabeticalDesc:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			return at > bt, at == bt
		case model.SortBidsAsc:
			return highestOrZero(a) < highestOrZero(b), highestOrZero(a) == highestOrZero(b)
		case model.SortBidsDesc:
			return highestOrZero(a) > highestOrZero(b), highestOrZero(a) == highestOrZero(b)
		case model.SortClosingLast:
			return a.EndDate.After(b.EndDate), a.EndDate.Equal(b.EndDate)
		case model.SortReserveAsc:
			return a.Reserve < b.Reserve, a.Reserve == b.Reserve
		case model.SortReserveDesc:
			return a.Reserve > b.Reserve, a.Reserve == b.Reserve
		default: // closing soon
			return a.EndDate.Before(b.EndDate), a.EndDate.Equal(b.EndDate)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		before, tie := less(i, j)
		if tie {
			return rows[i].AuctionID < rows[j].AuctionID
		}
		return before
	})
}

// paginate slices rows from start; count <= 0 means no limit
func paginate(rows []model.AuctionSummary, start, count int) []model.AuctionSummary {
	if start < 0 {
		start = 0
	}
	if start >= len(rows) {
		return []model.AuctionSummary{}
	}
	end := len(rows)
	if count > 0 && count < math.MaxInt32 && start+count < end {
		end = start + count
	}
	return rows[start:end]
}
