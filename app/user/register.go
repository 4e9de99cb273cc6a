package user

import (
	"net/http"

	"github.com/twonumberfortyfives/e-commerce-shop/internal"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/service"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	user, err := d.Registration.Register(c.Request.Context(), service.RegisterInput{
		Username:        data.Username,
		Email:           data.Email,
		Password:        data.Password,
		PasswordConfirm: data.PasswordConfirm,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"username":        user.Username,
		"email":           user.Email,
		"profile_picture": user.ProfilePicture,
	})
}
