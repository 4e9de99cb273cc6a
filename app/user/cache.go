package user

import (
	"strconv"

	"github.com/twonumberfortyfives/e-commerce-shop/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const listCacheKey = "users:list"

func userCacheKey(id uint64) string {
	return "users:" + strconv.FormatUint(id, 10)
}

// FetchCacheKey keys GET /users/:id by the parsed ID so /users/01 and
// /users/1 share an entry. Invalid IDs are not cached.
func FetchCacheKey(c *gin.Context) (string, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return "", false
	}

	return userCacheKey(id), true
}

func ListCacheKey(*gin.Context) (string, bool) {
	return listCacheKey, true
}

// forgetUser drops the cached responses that show user id
func forgetUser(d *internal.Deps, id uint) {
	if d.Cache == nil {
		return
	}

	for _, key := range []string{userCacheKey(uint64(id)), listCacheKey} {
		if err := d.Cache.Delete(key); err != nil {
			zap.L().Warn("Failed to drop cached user response", zap.Error(err), zap.String("key", key))
		}
	}
}
