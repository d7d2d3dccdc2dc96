package handlers

import (
	"storefront/internal/config"
	"storefront/internal/repos"
	"storefront/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	SearchHandler    *SearchHandler
	Orders           *services.OrderService
}

func NewDeps(db *sqlx.DB, cfg config.Config, obs services.Observer) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, orderRepo)
	invSvc := services.NewInventoryService(invRepo)
	orderSvc := services.NewOrderService(db, prodRepo, invRepo, orderRepo,
		services.WithObserver(obs),
		services.WithMaxAttempts(cfg.OrderMaxAttempts),
	)

	return &Deps{
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc, Catalog: catalogSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		Orders:           orderSvc,
	}
}
