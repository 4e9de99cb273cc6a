package internal

import (
	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/service"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/storage"

	"github.com/chenyahui/gin-cache/persist"
	"gorm.io/gorm"
)

// Deps is handed to every handler
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Sink         storage.Sink
	Sessions     *service.Sessions
	Registration *service.Registration
	Profiles     *service.Profiles
	// Responses of the user read endpoints, dropped again on profile edits
	Cache persist.CacheStore
}
