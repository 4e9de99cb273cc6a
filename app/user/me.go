package user

import (
	"errors"
	"net/http"

	"github.com/twonumberfortyfives/e-commerce-shop/internal"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func UserMe(c *gin.Context, d *internal.Deps) {
	profile, err := d.Profiles.MyProfile(c.Request.Context(), newCarrier(c, d.Config.Auth))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UserEdit takes a multipart form with the optional fields username, bio and
// image
func UserEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	if err := c.Request.ParseMultipartForm(d.Config.Upload.MaxSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		badBody(c, err)
		return
	}

	var upd service.ProfileUpdate

	if v, ok := c.GetPostForm("username"); ok {
		upd.Username = &v
	}

	if v, ok := c.GetPostForm("bio"); ok {
		upd.Bio = &v
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to open uploaded image", zap.Error(err), zap.String("requestID", requestID))
			return
		}
		defer f.Close()

		upd.Image = &service.ImageUpload{
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		badBody(c, err)
		return
	}

	user, pair, err := d.Profiles.EditProfile(c.Request.Context(), newCarrier(c, d.Config.Auth), upd)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	forgetUser(d, user.ID)

	resp := editResponse{Profile: user.Profile()}
	if pair != nil {
		resp.AccessToken = pair.AccessToken
		resp.TokenType = pair.TokenType
	}

	c.JSON(http.StatusOK, resp)
}

// editResponse is the profile plus, after a rename, the access token for the
// new username
type editResponse struct {
	model.Profile
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}
