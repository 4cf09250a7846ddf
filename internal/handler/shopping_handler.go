package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

type optimizePayload struct {
	Items       []service.ShoppingItem      `json:"items"`
	Stores      []service.StoreOption       `json:"stores"`
	Strategy    string                      `json:"strategy"`
	Constraints service.ShoppingConstraints `json:"constraints"`
	Home        service.GeoPoint            `json:"home"`
	When        string                      `json:"when"`
}

// OptimizeShopping 是纯计算端点：不落库，按策略返回商店分派方案。
// 未随请求内联商店时使用持久化目录。
func (a *API) OptimizeShopping(c *gin.Context) {
	var payload optimizePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}
	if len(payload.Items) == 0 {
		respondError(c, http.StatusBadRequest, "购物清单不能为空")
		return
	}

	var when time.Time
	if payload.When != "" {
		parsed, err := time.Parse(time.RFC3339, payload.When)
		if err != nil {
			respondError(c, http.StatusBadRequest, "when 需为 RFC3339 时间")
			return
		}
		when = parsed
	}

	stores := payload.Stores
	if len(stores) == 0 {
		options, err := a.stores.Options()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "读取商店目录失败")
			return
		}
		stores = options
	}

	result, err := a.optimizer.Optimize(payload.Items, stores, payload.Strategy, payload.Constraints, payload.Home, when)
	if err != nil {
		if errors.Is(err, service.ErrUnknownStrategy) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "购物优化失败")
		return
	}

	c.JSON(http.StatusOK, result)
}
