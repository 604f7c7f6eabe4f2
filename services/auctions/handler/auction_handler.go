package handler

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

import (
	"context"
	"fmt"
	"net/http"

	auctions "auction-site/internal/auctionService"
	"auction-site/internal/auctionerrors"
	"auction-site/internal/imagestore"
	model "auction-site/internal/models"
	"auction-site/services/auctions/helpers"
	"auction-site/services/common"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	ListAuctions(ctx context.Context, query model.AuctionQuery) (model.AuctionPage, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateAuction(ctx context.Context, sellerID uint, in auctions.CreateInput) (uint, error)
	GetAuction(ctx context.Context, auctionID uint) (model.AuctionDetail, error)
	UpdateAuction(ctx context.Context, auctionID, requesterID uint, in auctions.UpdateInput) error
	DeleteAuction(ctx context.Context, auctionID, requesterID uint) error
	GetImage(ctx context.Context, auctionID uint) (imagestore.Image, error)
	SetImage(ctx context.Context, auctionID, requesterID uint, data []byte, contentType string) (bool, error)
}

type AuctionHandler struct {
	service       AuctionServiceInterface
	maxImageBytes int64
}

func NewAuctionHandler(service AuctionServiceInterface, maxImageBytes int64) *AuctionHandler {
	return &AuctionHandler{service: service, maxImageBytes: maxImageBytes}
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	query, err := helpers.ParseAuctionQuery(c)
	if err != nil {
		common.RespondError(c, "ListAuctionsHandler", err, map[string]any{"query": c.Request.URL.RawQuery})
		return
	}

	page, err := h.service.ListAuctions(c.Request.Context(), query)
	if err != nil {
		common.RespondError(c, "ListAuctionsHandler", err, map[string]any{"query": c.Request.URL.RawQuery})
		return
	}
	if page.Auctions == nil {
		page.Auctions = []model.AuctionSummary{}
	}

	utils.JSONResponse(c, http.StatusOK, page, "auctions retrieved successfully")
	utils.Debug("ListAuctionsHandler: auctions retrieved", map[string]any{
		"returned": len(page.Auctions),
		"count":    page.Count,
	})
}

// ListCategoriesHandler handles GET /auctions/categories
func (h *AuctionHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondError(c, "ListCategoriesHandler", err, nil)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	sellerID, ok := common.RequireUserID(c, "CreateAuctionHandler")
	if !ok {
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}
	in, err := req.Input()
	if err != nil {
		common.RespondError(c, "CreateAuctionHandler", err, map[string]any{"end_date": req.EndDate})
		return
	}

	auctionID, err := h.service.CreateAuction(c.Request.Context(), sellerID, in)
	if err != nil {
		common.RespondError(c, "CreateAuctionHandler", err, map[string]any{"seller_id": sellerID, "title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.CreateAuctionResponse{AuctionID: auctionID}, "auction created successfully")
	common.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auctionID,
		"seller_id":  sellerID,
	})
}

// GetAuctionHandler handles GET /auctions/:id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "GetAuctionHandler", err, nil)
		return
	}

	detail, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		common.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, detail, "auction retrieved successfully")
}

// UpdateAuctionHandler handles PATCH /auctions/:id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "UpdateAuctionHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "UpdateAuctionHandler")
	if !ok {
		return
	}

	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}
	if req.Empty() {
		common.RespondError(c, "UpdateAuctionHandler", fmt.Errorf("%w: nothing to update", auctionerrors.ErrInvalidAuction), nil)
		return
	}
	in, err := req.Input()
	if err != nil {
		common.RespondError(c, "UpdateAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if err := h.service.UpdateAuction(c.Request.Context(), auctionID, requesterID, in); err != nil {
		common.RespondError(c, "UpdateAuctionHandler", err, map[string]any{"auction_id": auctionID, "requester_id": requesterID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction updated successfully")
	common.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{"auction_id": auctionID})
}

// DeleteAuctionHandler handles DELETE /auctions/:id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "DeleteAuctionHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "DeleteAuctionHandler")
	if !ok {
		return
	}

	if err := h.service.DeleteAuction(c.Request.Context(), auctionID, requesterID); err != nil {
		common.RespondError(c, "DeleteAuctionHandler", err, map[string]any{"auction_id": auctionID, "requester_id": requesterID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction deleted successfully")
	common.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{"auction_id": auctionID})
}

// GetAuctionImageHandler handles GET /auctions/:id/image
func (h *AuctionHandler) GetAuctionImageHandler(c *gin.Context) {
	auctionID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "GetAuctionImageHandler", err, nil)
		return
	}

	img, err := h.service.GetImage(c.Request.Context(), auctionID)
	if err != nil {
		common.RespondError(c, "GetAuctionImageHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	common.WriteImage(c, img.Data, img.ContentType)
}

// SetAuctionImageHandler handles PUT /auctions/:id/image with the raw image as the body
func (h *AuctionHandler) SetAuctionImageHandler(c *gin.Context) {
	auctionID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "SetAuctionImageHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "SetAuctionImageHandler")
	if !ok {
		return
	}

	data, contentType, err := common.ReadImageBody(c, h.maxImageBytes)
	if err != nil {
		common.RespondError(c, "SetAuctionImageHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	created, err := h.service.SetImage(c.Request.Context(), auctionID, requesterID, data, contentType)
	if err != nil {
		common.RespondError(c, "SetAuctionImageHandler", err, map[string]any{"auction_id": auctionID, "content_type": contentType})
		return
	}

	status, message := http.StatusOK, "image updated successfully"
	if created {
		status, message = http.StatusCreated, "image created successfully"
	}
	utils.JSONResponse(c, status, nil, message)
	common.LogSuccess("SetAuctionImageHandler", message, map[string]any{"auction_id": auctionID, "bytes": len(data)})
}
