package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"auction-site/internal/auctionerrors"
	model "auction-site/internal/models"

	"github.com/gin-gonic/gin"
)

// ParseAuctionQuery reads the search parameters of GET /auctions.
// categoryIds may be repeated, sent as categoryIds[] or given as a comma separated list.
func ParseAuctionQuery(c *gin.Context) (model.AuctionQuery, error) {
	query := model.AuctionQuery{
		Q:      strings.TrimSpace(c.Query("q")),
		SortBy: model.SortBy(strings.ToUpper(strings.TrimSpace(c.Query("sortBy")))),
	}

	var err error
	if query.StartIndex, err = intParam(c, "startIndex"); err != nil {
		return model.AuctionQuery{}, err
	}
	if query.Count, err = intParam(c, "count"); err != nil {
		return model.AuctionQuery{}, err
	}
	if query.SellerID, err = idParam(c, "sellerId"); err != nil {
		return model.AuctionQuery{}, err
	}
	if query.BidderID, err = idParam(c, "bidderId"); err != nil {
		return model.AuctionQuery{}, err
	}

	var raw []string
	raw = append(raw, c.QueryArray("categoryIds")...)
	raw = append(raw, c.QueryArray("categoryIds[]")...)
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 32)
			if err != nil || id == 0 {
				return model.AuctionQuery{}, fmt.Errorf("%w: categoryIds=%q", auctionerrors.ErrInvalidQuery, part)
			}
			query.CategoryIDs = append(query.CategoryIDs, uint(id))
		}
	}
	return query, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", auctionerrors.ErrInvalidQuery, name, raw)
	}
	return v, nil
}

func idParam(c *gin.Context, name string) (uint, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s=%q", auctionerrors.ErrInvalidQuery, name, raw)
	}
	return uint(v), nil
}
