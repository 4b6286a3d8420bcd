package handlers

import (
	"net/http"

	"talkplanner/internal/models"
	"talkplanner/internal/response"
	"talkplanner/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type UserView struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func newUserView(u models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Active: u.Active}
}

type UserListResponse struct {
	Items []UserView `json:"items"`
	Total int64      `json:"total"`
}

type UserCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type UserUpdateRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// requester loads the account behind the access token.
func requester(c *gin.Context) (models.User, bool) {
	userID := c.GetUint("userID")
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code: "USER_NOT_FOUND", Message: "Account no longer exists",
		})
		return models.User{}, false
	}
	return user, true
}

// ListUsersHandler lists accounts
// @Summary		List users
// @Description	Administrators see every account; everyone else only sees their own.
// @Tags			users
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	UserListResponse		"Accounts"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/users [get]
func ListUsersHandler(c *gin.Context) {
	current, ok := requester(c)
	if !ok {
		return
	}
	if current.Role != models.RoleAdmin {
		c.JSON(http.StatusOK, UserListResponse{Items: []UserView{newUserView(current)}, Total: 1})
		return
	}

	var total int64
	if err := storage.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not count users", Details: err.Error(),
		})
		return
	}

	var users []models.User
	if err := storage.DB.Order("name").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not load users", Details: err.Error(),
		})
		return
	}
	items := make([]UserView, 0, len(users))
	for _, u := range users {
		items = append(items, newUserView(u))
	}
	c.JSON(http.StatusOK, UserListResponse{Items: items, Total: total})
}

// GetUserHandler returns one account
// @Summary		Get a user
// @Tags			users
// @Produce		json
// @Param			id	path	int	true	"User ID"
// @Security		BearerAuth
// @Success		200	{object}	UserView				"Account"
// @Failure		403	{object}	response.ErrorResponse	"Not allowed (ADMIN_ONLY)"
// @Failure		404	{object}	response.ErrorResponse	"User not found (NOT_FOUND)"
// @Router			/api/users/{id} [get]
func GetUserHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	current, ok := requester(c)
	if !ok {
		return
	}
	if current.Role != models.RoleAdmin && current.ID != id {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code: "ADMIN_ONLY", Message: "You can only view your own account",
		})
		return
	}
	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "User not found",
		})
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

// CreateUserHandler creates an account (admin)
// @Summary		Create a user
// @Tags			users
// @Accept			json
// @Produce		json
// @Param			user	body	UserCreateRequest	true	"Account data"
// @Security		BearerAuth
// @Success		201	{object}	UserView				"Created account"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, EMAIL_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Server error (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/api/users [post]
func CreateUserHandler(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name, email and password are required",
			Details: err.Error(),
		})
		return
	}

	var existing models.User
	if err := storage.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code: "EMAIL_EXISTS", Message: "Email is already registered",
		})
		return
	}

	role := req.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "PASSWORD_HASH_ERROR", Message: "Could not hash password",
		})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not create user", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

// UpdateUserHandler updates an account
// @Summary		Update a user
// @Description	Administrators may edit any account including role and active flag. Everyone else may only rename their own account; role and active changes are ignored for them.
// @Tags			users
// @Accept			json
// @Produce		json
// @Param			id		path	int					true	"User ID"
// @Param			user	body	UserUpdateRequest	true	"Account data"
// @Security		BearerAuth
// @Success		200	{object}	UserView				"Updated account"
// @Failure		400	{object}	response.ErrorResponse	"Validation error (VALIDATION_ERROR, EMAIL_EXISTS)"
// @Failure		403	{object}	response.ErrorResponse	"Not allowed (ADMIN_ONLY)"
// @Failure		404	{object}	response.ErrorResponse	"User not found (NOT_FOUND)"
// @Router			/api/users/{id} [put]
func UpdateUserHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	current, ok := requester(c)
	if !ok {
		return
	}
	if current.Role != models.RoleAdmin && current.ID != id {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code: "ADMIN_ONLY", Message: "You can only edit your own account",
		})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "User not found",
		})
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Name and email are required",
			Details: err.Error(),
		})
		return
	}

	var other models.User
	if err := storage.DB.Where("email = ? AND id <> ?", req.Email, id).First(&other).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code: "EMAIL_EXISTS", Message: "Email is already registered",
		})
		return
	}

	updates := map[string]interface{}{
		"name":  req.Name,
		"email": req.Email,
	}
	if current.Role == models.RoleAdmin {
		if req.Role == models.RoleAdmin || req.Role == models.RoleUser {
			updates["role"] = req.Role
		}
		if req.Active != nil {
			updates["active"] = *req.Active
		}
	}
	if err := storage.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update user", Details: err.Error(),
		})
		return
	}
	storage.DB.First(&user, id)
	c.JSON(http.StatusOK, newUserView(user))
}

// DeleteUserHandler removes an account (admin)
// @Summary		Delete a user
// @Tags			users
// @Produce		json
// @Param			id	path	int	true	"User ID"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Deleted"
// @Failure		400	{object}	response.ErrorResponse		"Cannot delete yourself (SELF_DELETE)"
// @Failure		500	{object}	response.ErrorResponse		"Server error (DB_ERROR)"
// @Router			/api/users/{id} [delete]
func DeleteUserHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if c.GetUint("userID") == id {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code: "SELF_DELETE", Message: "You cannot delete your own account",
		})
		return
	}
	if err := storage.DB.Delete(&models.User{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not delete user", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "User deleted"})
}

// ResetPasswordHandler sets a new password for an account
// @Summary		Reset a user password
// @Description	Administrators may reset any password; everyone else only their own.
// @Tags			users
// @Accept			json
// @Produce		json
// @Param			id		path	int						true	"User ID"
// @Param			body	body	ResetPasswordRequest	true	"New password"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Password changed"
// @Failure		400	{object}	response.ErrorResponse		"Validation error (VALIDATION_ERROR)"
// @Failure		403	{object}	response.ErrorResponse		"Not allowed (ADMIN_ONLY)"
// @Failure		404	{object}	response.ErrorResponse		"User not found (NOT_FOUND)"
// @Router			/api/users/{id}/reset-password [post]
func ResetPasswordHandler(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	current, ok := requester(c)
	if !ok {
		return
	}
	if current.Role != models.RoleAdmin && current.ID != id {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code: "ADMIN_ONLY", Message: "You can only change your own password",
		})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code: "NOT_FOUND", Message: "User not found",
		})
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Password must be at least 6 characters",
			Details: err.Error(),
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "PASSWORD_HASH_ERROR", Message: "Could not hash password",
		})
		return
	}
	if err := storage.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code: "DB_ERROR", Message: "Could not update password", Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Password changed"})
}
