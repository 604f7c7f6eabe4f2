package repository

import (
	"auction-site/internal/auctionerrors"
	model "auction-site/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo implements UserDB, AuctionDB and Seeder on a relational database
type GormRepo struct {
	db *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// Migrate creates the schema and the default categories
func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Category{}, &model.Auction{}, &model.Bid{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return r.ensureCategories(r.db.WithContext(ctx))
}

func (r *GormRepo) ensureCategories(tx *gorm.DB) error {
	for _, name := range DefaultCategories {
		c := model.Category{Name: name}
		if err := tx.Where(model.Category{Name: name}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("ensure category %s: %w", name, err)
		}
	}
	return nil
}

// notFound turns gorm's missing-row error into the given sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (r *GormRepo) CreateUser(ctx context.Context, user *model.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("LOWER(email) = ?", strings.ToLower(user.Email)).Count(&count).Error; err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	if count > 0 {
		return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailInUse)
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailInUse)
		}
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *GormRepo) GetUser(ctx context.Context, userID uint) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("get user by email %s: %w", email, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

func (r *GormRepo) GetUserByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, fmt.Errorf("get user by token: %w", auctionerrors.ErrUserNotFound)
	}
	var user model.User
	if err := r.db.WithContext(ctx).Where("auth_token = ?", token).First(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("get user by token: %w", notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

// UpdateUser writes every profile column of user, including zero values.
// auth_token is left to SetAuthToken.
func (r *GormRepo) UpdateUser(ctx context.Context, user model.User) error {
	db := r.db.WithContext(ctx)
	if _, err := r.GetUser(ctx, user.UserID); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	var count int64
	if err := db.Model(&model.User{}).Where("LOWER(email) = ? AND id <> ?", strings.ToLower(user.Email), user.UserID).Count(&count).Error; err != nil {
		return fmt.Errorf("update user %d: %w", user.UserID, err)
	}
	if count > 0 {
		return fmt.Errorf("update user %d: %w", user.UserID, auctionerrors.ErrEmailInUse)
	}
	if err := db.Model(&model.User{}).Where("id = ?", user.UserID).Select("*").Omit("id", "auth_token").Updates(&user).Error; err != nil {
		return fmt.Errorf("update user %d: %w", user.UserID, err)
	}
	return nil
}

func (r *GormRepo) SetAuthToken(ctx context.Context, userID uint, token string) error {
	if _, err := r.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("set auth token: %w", err)
	}
	var value any
	if token != "" {
		value = token
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("auth_token", value).Error; err != nil {
		return fmt.Errorf("set auth token for user %d: %w", userID, err)
	}
	return nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, categoryID uint) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, categoryID).Error; err != nil {
		return model.Category{}, fmt.Errorf("get category %d: %w", categoryID, notFound(err, auctionerrors.ErrCategoryNotFound))
	}
	return c, nil
}

func (r *GormRepo) checkReferences(tx *gorm.DB, a model.Auction) error {
	if err := tx.First(&model.Category{}, a.CategoryID).Error; err != nil {
		return fmt.Errorf("category %d: %w", a.CategoryID, notFound(err, auctionerrors.ErrCategoryNotFound))
	}
	if err := tx.First(&model.User{}, a.SellerID).Error; err != nil {
		return fmt.Errorf("seller %d: %w", a.SellerID, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return nil
}

func (r *GormRepo) CreateAuction(ctx context.Context, auction *model.Auction) error {
	db := r.db.WithContext(ctx)
	if err := r.checkReferences(db, *auction); err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	if err := db.Create(auction).Error; err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	return nil
}

func (r *GormRepo) GetAuction(ctx context.Context, auctionID uint) (model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, auctionID).Error; err != nil {
		return model.Auction{}, fmt.Errorf("get auction %d: %w", auctionID, notFound(err, auctionerrors.ErrAuctionNotFound))
	}
	return a, nil
}

// summaryRow is the scan target of the listing query
type summaryRow struct {
	model.AuctionSummary
	Description string
}

const summaryColumns = "a.id AS auction_id, a.title, a.category_id, a.seller_id, " +
	"u.first_name AS seller_first_name, u.last_name AS seller_last_name, a.reserve, " +
	"COUNT(b.id) AS num_bids, MAX(b.amount) AS highest_bid, a.end_date, a.description"

const summaryGroup = "a.id, a.title, a.category_id, a.seller_id, u.first_name, u.last_name, a.reserve, a.end_date, a.description"

func (r *GormRepo) summaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("auctions AS a").
		Select(summaryColumns).
		Joins("JOIN users AS u ON u.id = a.seller_id").
		Joins("LEFT JOIN bids AS b ON b.auction_id = a.id").
		Group(summaryGroup)
}

func (r *GormRepo) GetAuctionDetail(ctx context.Context, auctionID uint) (model.AuctionDetail, error) {
	var rows []summaryRow
	if err := r.summaries(ctx).Where("a.id = ?", auctionID).Scan(&rows).Error; err != nil {
		return model.AuctionDetail{}, fmt.Errorf("get auction detail %d: %w", auctionID, err)
	}
	if len(rows) == 0 {
		return model.AuctionDetail{}, fmt.Errorf("get auction detail %d: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return model.AuctionDetail{AuctionSummary: rows[0].AuctionSummary, Description: rows[0].Description}, nil
}

// filterAuctions applies the query's filters to a statement over "auctions AS a"
func filterAuctions(tx *gorm.DB, query model.AuctionQuery) *gorm.DB {
	if q := strings.ToLower(strings.TrimSpace(query.Q)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(LOWER(a.title) LIKE ? OR LOWER(a.description) LIKE ?)", like, like)
	}
	if len(query.CategoryIDs) > 0 {
		tx = tx.Where("a.category_id IN ?", query.CategoryIDs)
	}
	if query.SellerID != 0 {
		tx = tx.Where("a.seller_id = ?", query.SellerID)
	}
	if query.BidderID != 0 {
		tx = tx.Where("EXISTS (SELECT 1 FROM bids AS bb WHERE bb.auction_id = a.id AND bb.user_id = ?)", query.BidderID)
	}
	return tx
}

func orderClause(by model.SortBy) string {
	switch by {
	case model.SortAlphabeticalAsc:
		return "LOWER(a.title) ASC, a.id ASC"
	case model.SortAlphabeticalDesc:
		return "LOWER(a.title) DESC, a.id ASC"
	case model.SortBidsAsc:
		return "COALESCE(MAX(b.amount), 0) ASC, a.id ASC"
	case model.SortBidsDesc:
		return "COALESCE(MAX(b.amount), 0) DESC, a.id ASC"
	case model.SortClosingLast:
		return "a.end_date DESC, a.id ASC"
	case model.SortReserveAsc:
		return "a.reserve ASC, a.id ASC"
	case model.SortReserveDesc:
		return "a.reserve DESC, a.id ASC"
	default:
		return "a.end_date ASC, a.id ASC"
	}
}

func (r *GormRepo) SearchAuctions(ctx context.Context, query model.AuctionQuery) (model.AuctionPage, error) {
	var total int64
	if err := filterAuctions(r.db.WithContext(ctx).Table("auctions AS a"), query).Count(&total).Error; err != nil {
		return model.AuctionPage{}, fmt.Errorf("search auctions: count: %w", err)
	}

	stmt := filterAuctions(r.summaries(ctx), query).Order(orderClause(query.SortBy))
	if query.StartIndex > 0 {
		stmt = stmt.Offset(query.StartIndex)
	}
	switch {
	case query.Count > 0:
		stmt = stmt.Limit(query.Count)
	case query.StartIndex > 0:
		// MySQL rejects OFFSET without LIMIT
		stmt = stmt.Limit(math.MaxInt32)
	}

	var rows []summaryRow
	if err := stmt.Scan(&rows).Error; err != nil {
		return model.AuctionPage{}, fmt.Errorf("search auctions: %w", err)
	}
	page := model.AuctionPage{Auctions: make([]model.AuctionSummary, 0, len(rows)), Count: int(total)}
	for _, row := range rows {
		page.Auctions = append(page.Auctions, row.AuctionSummary)
	}
	return page, nil
}

// UpdateAuction writes every column of auction except its image while nobody has bid on it.
// The bid check and the write share a transaction holding the auction row lock RecordBid takes.
func (r *GormRepo) UpdateAuction(ctx context.Context, auction model.Auction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUnbidAuction(tx, auction.AuctionID); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}
		if err := r.checkReferences(tx, auction); err != nil {
			return fmt.Errorf("update auction %d: %w", auction.AuctionID, err)
		}
		if err := tx.Model(&model.Auction{}).Where("id = ?", auction.AuctionID).Select("*").Omit("id", "image_filename").Updates(&auction).Error; err != nil {
			return fmt.Errorf("update auction %d: %w", auction.AuctionID, err)
		}
		return nil
	})
}

// DeleteAuction removes an auction nobody has bid on
func (r *GormRepo) DeleteAuction(ctx context.Context, auctionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUnbidAuction(tx, auctionID); err != nil {
			return fmt.Errorf("delete auction: %w", err)
		}
		if err := tx.Delete(&model.Auction{}, auctionID).Error; err != nil {
			return fmt.Errorf("delete auction %d: %w", auctionID, err)
		}
		return nil
	})
}

func (r *GormRepo) SetAuctionImage(ctx context.Context, auctionID uint, filename string) error {
	res := r.db.WithContext(ctx).Model(&model.Auction{}).Where("id = ?", auctionID).Update("image_filename", filename)
	if res.Error != nil {
		return fmt.Errorf("set image for auction %d: %w", auctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetAuction(ctx, auctionID); err != nil {
			return fmt.Errorf("set image: %w", err)
		}
	}
	return nil
}

// lockAuction loads the auction row inside tx. On mysql the row stays locked until tx ends.
func lockAuction(tx *gorm.DB, auctionID uint) (model.Auction, error) {
	locked := tx
	if tx.Dialector.Name() == "mysql" {
		locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var auction model.Auction
	if err := locked.First(&auction, auctionID).Error; err != nil {
		return model.Auction{}, fmt.Errorf("auction %d: %w", auctionID, notFound(err, auctionerrors.ErrAuctionNotFound))
	}
	return auction, nil
}

// lockUnbidAuction locks the auction row and fails with ErrAuctionHasBids once a bid exists
func lockUnbidAuction(tx *gorm.DB, auctionID uint) error {
	if _, err := lockAuction(tx, auctionID); err != nil {
		return err
	}
	var bids int64
	if err := tx.Model(&model.Bid{}).Where("auction_id = ?", auctionID).Count(&bids).Error; err != nil {
		return fmt.Errorf("count bids of auction %d: %w", auctionID, err)
	}
	if bids > 0 {
		return fmt.Errorf("auction %d: %w", auctionID, auctionerrors.ErrAuctionHasBids)
	}
	return nil
}

// RecordBid locks the auction row so concurrent bids are compared against a stable maximum
func (r *GormRepo) RecordBid(ctx context.Context, bid *model.Bid) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAuction(tx, bid.AuctionID); err != nil {
			return fmt.Errorf("record bid: %w", err)
		}
		if err := tx.First(&model.User{}, bid.UserID).Error; err != nil {
			return fmt.Errorf("record bid for auction %d: %w", bid.AuctionID, notFound(err, auctionerrors.ErrUserNotFound))
		}

		var highest sql.NullInt64
		if err := tx.Model(&model.Bid{}).Where("auction_id = ?", bid.AuctionID).Select("MAX(amount)").Row().Scan(&highest); err != nil {
			return fmt.Errorf("record bid for auction %d: %w", bid.AuctionID, err)
		}
		if highest.Valid && int64(bid.Amount) <= highest.Int64 {
			return fmt.Errorf("record bid of %d for auction %d (highest %d): %w",
				bid.Amount, bid.AuctionID, highest.Int64, auctionerrors.ErrBidTooLow)
		}
		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("record bid for auction %d: %w", bid.AuctionID, err)
		}
		return nil
	})
}

func (r *GormRepo) GetBidsByAuction(ctx context.Context, auctionID uint) ([]model.BidView, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}
	views := make([]model.BidView, 0)
	err := r.db.WithContext(ctx).Table("bids AS b").
		Select("b.user_id AS bidder_id, b.amount, u.first_name, u.last_name, b.timestamp").
		Joins("JOIN users AS u ON u.id = b.user_id").
		Where("b.auction_id = ?", auctionID).
		Order("b.amount DESC, b.timestamp ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %d: %w", auctionID, err)
	}
	return views, nil
}

func (r *GormRepo) GetHighestBid(ctx context.Context, auctionID uint) (model.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return model.Bid{}, fmt.Errorf("get highest bid: %w", err)
	}
	var bid model.Bid
	err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).Order("amount DESC, timestamp ASC").First(&bid).Error
	if err != nil {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %d: %w", auctionID, notFound(err, auctionerrors.ErrNoBids))
	}
	return bid, nil
}

// Reset empties every table and restores the default categories
func (r *GormRepo) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, table := range []any{&model.Bid{}, &model.Auction{}, &model.User{}, &model.Category{}} {
			if err := all.Delete(table).Error; err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		return r.ensureCategories(tx)
	})
}

func (r *GormRepo) Resample(ctx context.Context) error {
	return loadSample(ctx, r, r)
}

// Ping checks the database connection
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
