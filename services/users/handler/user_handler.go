package handler

//go:generate mockgen -source=user_handler.go -destination=mock_user_handler.go -package=handler

import (
	"context"
	"fmt"
	"net/http"

	"auction-site/internal/auctionerrors"
	"auction-site/internal/imagestore"
	users "auction-site/internal/userService"
	"auction-site/services/common"
	"auction-site/services/users/helpers"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

type UserServiceInterface interface {
	Register(ctx context.Context, in users.RegisterInput) (uint, error)
	Login(ctx context.Context, email, password string) (users.LoginResult, error)
	Logout(ctx context.Context, userID uint) error
	GetUser(ctx context.Context, userID, requesterID uint) (users.UserView, error)
	UpdateUser(ctx context.Context, userID, requesterID uint, in users.UpdateInput) error
	GetImage(ctx context.Context, userID uint) (imagestore.Image, error)
	SetImage(ctx context.Context, userID, requesterID uint, data []byte, contentType string) (bool, error)
	DeleteImage(ctx context.Context, userID, requesterID uint) error
}

type UserHandler struct {
	service       UserServiceInterface
	maxImageBytes int64
}

func NewUserHandler(service UserServiceInterface, maxImageBytes int64) *UserHandler {
	return &UserHandler{service: service, maxImageBytes: maxImageBytes}
}

// RegisterHandler handles POST /users/register
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleBindError(c, "RegisterHandler", err)
		return
	}

	userID, err := h.service.Register(c.Request.Context(), req.Input())
	if err != nil {
		common.RespondError(c, "RegisterHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.RegisterResponse{UserID: userID}, "user registered successfully")
	common.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{"user_id": userID})
}

// LoginHandler handles POST /users/login
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleBindError(c, "LoginHandler", err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondError(c, "LoginHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, result, "logged in successfully")
	common.LogSuccess("LoginHandler", "logged in successfully", map[string]any{"user_id": result.UserID})
}

// LogoutHandler handles POST /users/logout
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	userID, ok := common.RequireUserID(c, "LogoutHandler")
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		common.RespondError(c, "LogoutHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
	common.LogSuccess("LogoutHandler", "logged out successfully", map[string]any{"user_id": userID})
}

// GetUserHandler handles GET /users/:id. The email is only included for the user themself.
func (h *UserHandler) GetUserHandler(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "GetUserHandler", err, nil)
		return
	}
	requesterID, _ := common.CurrentUserID(c)

	view, err := h.service.GetUser(c.Request.Context(), userID, requesterID)
	if err != nil {
		common.RespondError(c, "GetUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view, "user retrieved successfully")
}

// UpdateUserHandler handles PATCH /users/:id
func (h *UserHandler) UpdateUserHandler(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "UpdateUserHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "UpdateUserHandler")
	if !ok {
		return
	}

	var req helpers.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.HandleBindError(c, "UpdateUserHandler", err)
		return
	}
	if req.Empty() {
		common.RespondError(c, "UpdateUserHandler", fmt.Errorf("%w: nothing to update", auctionerrors.ErrInvalidUser), nil)
		return
	}

	if err := h.service.UpdateUser(c.Request.Context(), userID, requesterID, req.Input()); err != nil {
		common.RespondError(c, "UpdateUserHandler", err, map[string]any{"user_id": userID, "requester_id": requesterID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "user updated successfully")
	common.LogSuccess("UpdateUserHandler", "user updated successfully", map[string]any{"user_id": userID})
}

// GetUserImageHandler handles GET /users/:id/image
func (h *UserHandler) GetUserImageHandler(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "GetUserImageHandler", err, nil)
		return
	}

	img, err := h.service.GetImage(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, "GetUserImageHandler", err, map[string]any{"user_id": userID})
		return
	}
	common.WriteImage(c, img.Data, img.ContentType)
}

// SetUserImageHandler handles PUT /users/:id/image with the raw image as the body
func (h *UserHandler) SetUserImageHandler(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "SetUserImageHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "SetUserImageHandler")
	if !ok {
		return
	}

	data, contentType, err := common.ReadImageBody(c, h.maxImageBytes)
	if err != nil {
		common.RespondError(c, "SetUserImageHandler", err, map[string]any{"user_id": userID})
		return
	}

	created, err := h.service.SetImage(c.Request.Context(), userID, requesterID, data, contentType)
	if err != nil {
		common.RespondError(c, "SetUserImageHandler", err, map[string]any{"user_id": userID, "content_type": contentType})
		return
	}

	status, message := http.StatusOK, "image updated successfully"
	if created {
		status, message = http.StatusCreated, "image created successfully"
	}
	utils.JSONResponse(c, status, nil, message)
	common.LogSuccess("SetUserImageHandler", message, map[string]any{"user_id": userID, "bytes": len(data)})
}

// DeleteUserImageHandler handles DELETE /users/:id/image
func (h *UserHandler) DeleteUserImageHandler(c *gin.Context) {
	userID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondError(c, "DeleteUserImageHandler", err, nil)
		return
	}
	requesterID, ok := common.RequireUserID(c, "DeleteUserImageHandler")
	if !ok {
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), userID, requesterID); err != nil {
		common.RespondError(c, "DeleteUserImageHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "image deleted successfully")
	common.LogSuccess("DeleteUserImageHandler", "image deleted successfully", map[string]any{"user_id": userID})
}
