package handler

import (
	"errors"
	"net/http"

	"github.com/daypilot/internal/db"
	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

// ListStores 返回商店目录
func (a *API) ListStores(c *gin.Context) {
	stores, err := a.stores.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取商店列表失败")
		return
	}

	items := make([]gin.H, 0, len(stores))
	for _, store := range stores {
		items = append(items, storeToPayload(store))
	}
	c.JSON(http.StatusOK, gin.H{"stores": items})
}

// CreateStore 新建商店及其价目
func (a *API) CreateStore(c *gin.Context) {
	var input service.StoreInput
	if !bindJSON(c, &input, "请求体格式错误") {
		return
	}

	store, err := a.stores.Create(input)
	if err != nil {
		if errors.Is(err, service.ErrStoreInvalid) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "创建商店失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"store": storeToPayload(*store)})
}

func storeToPayload(store db.Store) gin.H {
	prices := make([]gin.H, 0, len(store.Prices))
	for _, price := range store.Prices {
		prices = append(prices, gin.H{"item_name": price.ItemName, "unit_price": price.UnitPrice})
	}

	return gin.H{
		"id":            store.ID,
		"name":          store.Name,
		"address":       store.Address,
		"lat":           store.Lat,
		"lng":           store.Lng,
		"price_level":   store.PriceLevel,
		"rating":        store.Rating,
		"opening_hours": store.OpeningHours,
		"prices":        prices,
	}
}
