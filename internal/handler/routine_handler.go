package handler

import (
	"errors"
	"net/http"

	"github.com/daypilot/internal/db"
	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

type routinePayload struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	ActivityType    string `json:"activity_type"`
	DurationMinutes int    `json:"duration_minutes"`
	MinEnergy       string `json:"min_energy"`
	TypeTag         string `json:"type_tag"`
	Status          string `json:"status"`
}

// ListRoutines 返回活动目录 JSON
func (a *API) ListRoutines(c *gin.Context) {
	filter := service.RoutineFilter{
		Status:  c.Query("status"),
		TypeTag: c.Query("type_tag"),
		Search:  c.Query("search"),
	}

	routines, err := a.routines.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取活动列表失败")
		return
	}

	items := make([]gin.H, 0, len(routines))
	for _, routine := range routines {
		items = append(items, routineToPayload(routine))
	}
	c.JSON(http.StatusOK, gin.H{"routines": items})
}

// CreateRoutine 新建活动
func (a *API) CreateRoutine(c *gin.Context) {
	var payload routinePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	routine, err := a.routines.Create(routineInputFromPayload(payload))
	if err != nil {
		respondRoutineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"routine": routineToPayload(*routine)})
}

// UpdateRoutine 更新活动
func (a *API) UpdateRoutine(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload routinePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	routine, err := a.routines.Update(id, routineInputFromPayload(payload))
	if err != nil {
		respondRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"routine": routineToPayload(*routine)})
}

// DeleteRoutine 删除活动
func (a *API) DeleteRoutine(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.routines.Delete(id); err != nil {
		respondRoutineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondRoutineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoutineNotFound):
		respondError(c, http.StatusNotFound, "活动不存在")
	case errors.Is(err, service.ErrRoutineInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
	}
}

func routineInputFromPayload(payload routinePayload) service.RoutineInput {
	return service.RoutineInput{
		Name:            payload.Name,
		Description:     payload.Description,
		ActivityType:    payload.ActivityType,
		DurationMinutes: payload.DurationMinutes,
		MinEnergy:       payload.MinEnergy,
		TypeTag:         payload.TypeTag,
		Status:          payload.Status,
	}
}

func routineToPayload(routine db.RoutineActivity) gin.H {
	return gin.H{
		"id":               routine.ID,
		"name":             routine.Name,
		"description":      routine.Description,
		"activity_type":    routine.ActivityType,
		"duration_minutes": routine.DurationMinutes,
		"min_energy":       routine.MinEnergy,
		"type_tag":         routine.TypeTag,
		"status":           routine.Status,
	}
}
