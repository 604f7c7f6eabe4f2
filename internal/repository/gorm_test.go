package repository

import (
	"auction-site/internal/auctionerrors"
	model "auction-site/internal/models"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteRepo opens a fresh file-backed sqlite database per test
func newSQLiteRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auctions.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := NewGormRepo(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestGormRepo(t *testing.T) {
	t.Parallel()
	runStoreTests(t, func(t *testing.T) store { return newSQLiteRepo(t) })
}

func TestGormRepo_MigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	require.NoError(t, repo.Migrate(context.Background()))

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(DefaultCategories))
	require.NoError(t, repo.Ping(context.Background()))
}

func TestGormRepo_UpdateAuctionChecksCategory(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	seller := newUser(t, repo, "seller@example.com", "Sam", "Seller")
	a := newAuction(t, repo, "Chair", seller.UserID, 11, 40, time.Hour)

	a.CategoryID = 9999
	err := repo.UpdateAuction(context.Background(), a)
	require.True(t, errors.Is(err, auctionerrors.ErrCategoryNotFound))

	stored, err := repo.GetAuction(context.Background(), a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, uint(11), stored.CategoryID)
}

func TestGormRepo_UpdateUserKeepsToken(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()
	u := newUser(t, repo, "token@example.com", "Tok", "En")
	require.NoError(t, repo.SetAuthToken(ctx, u.UserID, "abc"))

	stored, err := repo.GetUser(ctx, u.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored.AuthToken)
	require.NoError(t, repo.SetAuthToken(ctx, u.UserID, ""))

	stored.FirstName = "Token"
	require.NoError(t, repo.UpdateUser(ctx, stored))
	_, err = repo.GetUserByToken(ctx, "abc")
	require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))

	var count int64
	require.NoError(t, repo.db.Model(&model.User{}).Where("auth_token IS NULL AND first_name = ?", "Token").Count(&count).Error)
	require.Equal(t, int64(1), count)
}
