package user

import (
	"net/http"
	"strconv"

	"github.com/twonumberfortyfives/e-commerce-shop/internal"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"

	"github.com/gin-gonic/gin"
)

func UserFetch(c *gin.Context, d *internal.Deps) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid user ID",
			"code":      "invalid_id",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	user, err := d.Profiles.GetUser(c.Request.Context(), uint(id))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func UserList(c *gin.Context, d *internal.Deps) {
	users, err := d.Profiles.ListUsers(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
