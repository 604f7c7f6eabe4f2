package perftests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	bidding "auction-site/internal/biddingService"
	"auction-site/internal/events"
	model "auction-site/internal/models"
	"auction-site/internal/repository"
)

// marketplace is a memory store pre-filled with one seller, a pool of bidders and open auctions
type marketplace struct {
	repo     *repository.MemoryRepo
	svc      *bidding.BiddingService
	bidders  []uint
	auctions []uint
}

func setupMarketplace(tb testing.TB, numBidders, numAuctions int) *marketplace {
	tb.Helper()
	ctx := context.Background()
	m := &marketplace{repo: repository.NewMemoryRepo()}
	m.svc = bidding.NewBiddingService(m.repo, events.NopPublisher{})

	seller := model.User{Email: "seller@perf.test", FirstName: "Perf", LastName: "Seller", Password: "x"}
	if err := m.repo.CreateUser(ctx, &seller); err != nil {
		tb.Fatalf("failed to create seller: %v", err)
	}
	for i := 0; i < numBidders; i++ {
		u := model.User{Email: fmt.Sprintf("bidder_%d@perf.test", i), FirstName: "Bidder", LastName: fmt.Sprint(i), Password: "x"}
		if err := m.repo.CreateUser(ctx, &u); err != nil {
			tb.Fatalf("failed to create bidder: %v", err)
		}
		m.bidders = append(m.bidders, u.UserID)
	}
	for i := 0; i < numAuctions; i++ {
		a := model.Auction{
			Title:       fmt.Sprintf("title_%d", i),
			Description: "Load test auction",
			EndDate:     time.Now().Add(24 * time.Hour),
			Reserve:     100,
			SellerID:    seller.UserID,
			CategoryID:  1,
		}
		if err := m.repo.CreateAuction(ctx, &a); err != nil {
			tb.Fatalf("failed to create auction: %v", err)
		}
		m.auctions = append(m.auctions, a.AuctionID)
	}
	return m
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)-1))]
	p99 = latencies[int(0.99*float64(len(latencies)-1))]
	return
}

var searchQueries = []model.AuctionQuery{
	{SortBy: model.SortClosingSoon, Count: 10},
	{Q: "title_1", SortBy: model.SortAlphabeticalAsc},
	{SortBy: model.SortBidsDesc, StartIndex: 20, Count: 20},
	{CategoryIDs: []uint{1, 2}, SortBy: model.SortReserveDesc, Count: 50},
}
