package user

import (
	"net/http"

	"github.com/twonumberfortyfives/e-commerce-shop/internal"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	pair, err := d.Sessions.Login(c.Request.Context(), newCarrier(c, d.Config.Auth), data.Username, data.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func UserRefresh(c *gin.Context, d *internal.Deps) {
	pair, err := d.Sessions.Refresh(c.Request.Context(), newCarrier(c, d.Config.Auth))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func UserLogout(c *gin.Context, d *internal.Deps) {
	if err := d.Sessions.Logout(c.Request.Context(), newCarrier(c, d.Config.Auth)); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
