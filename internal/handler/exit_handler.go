package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

type exitTimePayload struct {
	PlanID          uint             `json:"plan_id"`
	CommitmentID    string           `json:"commitment_id"`
	CommitmentName  string           `json:"commitment_name"`
	CommitmentStart string           `json:"commitment_start"`
	Origin          service.GeoPoint `json:"origin"`
	Destination     service.GeoPoint `json:"destination"`
	TravelMethod    string           `json:"travel_method"`
	TravelMethods   []string         `json:"travel_methods"`
	PrepMinutes     int              `json:"prep_minutes"`
}

type gateTemplatePayload struct {
	Conditions []service.GateTemplateEntry `json:"conditions"`
}

type gateEvaluatePayload struct {
	Tags      []string        `json:"tags"`
	Satisfied map[string]bool `json:"satisfied"`
}

func (a *API) bindExitTimeInput(c *gin.Context) (*exitTimePayload, *service.ComputeExitTimeInput, bool) {
	var payload exitTimePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return nil, nil, false
	}

	start, err := time.Parse(time.RFC3339, payload.CommitmentStart)
	if err != nil {
		respondError(c, http.StatusBadRequest, "commitment_start 需为 RFC3339 时间")
		return nil, nil, false
	}

	input := service.ComputeExitTimeInput{
		UserID:          currentUserID(c),
		PlanID:          payload.PlanID,
		CommitmentID:    payload.CommitmentID,
		CommitmentName:  payload.CommitmentName,
		CommitmentStart: start,
		Origin:          payload.Origin,
		Destination:     payload.Destination,
		TravelMethod:    payload.TravelMethod,
		PrepMinutes:     payload.PrepMinutes,
	}
	return &payload, &input, true
}

// ComputeExitTime 计算并持久化某外部日程的最晚出门时刻
func (a *API) ComputeExitTime(c *gin.Context) {
	_, input, ok := a.bindExitTimeInput(c)
	if !ok {
		return
	}

	result, err := a.exits.Compute(*input)
	if err != nil {
		if errors.Is(err, service.ErrUnknownTravelMethod) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondPlanError(c, err)
		return
	}

	response := gin.H{"exit_time": exitTimeToPayload(result.ExitTime)}
	if result.Warning != "" {
		response["warnings"] = []string{result.Warning}
	}
	c.JSON(http.StatusCreated, response)
}

// CompareExitTimes 对多种出行方式做不落库的试算对比
func (a *API) CompareExitTimes(c *gin.Context) {
	payload, input, ok := a.bindExitTimeInput(c)
	if !ok {
		return
	}

	methods := payload.TravelMethods
	if len(methods) == 0 {
		respondError(c, http.StatusBadRequest, "travel_methods 不能为空")
		return
	}

	candidates, err := a.exits.CompareMethods(*input, methods)
	if err != nil {
		if errors.Is(err, service.ErrUnknownTravelMethod) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// GetGateTemplate 返回与规范默认集合并后的闸门条件模板
func (a *API) GetGateTemplate(c *gin.Context) {
	entries, err := a.gates.Template(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取闸门模板失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conditions": entries})
}

// UpdateGateTemplate 整体写入闸门条件模板
func (a *API) UpdateGateTemplate(c *gin.Context) {
	var payload gateTemplatePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	if err := a.gates.Update(currentUserID(c), payload.Conditions); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := a.gates.Template(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取闸门模板失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conditions": entries})
}

// EvaluateGate 以模板（或标签子集）构造闸门，套用当前勾选状态后评估。
// 勾选状态由客户端临时持有，本端点无副作用。
func (a *API) EvaluateGate(c *gin.Context) {
	var payload gateEvaluatePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	var gate *service.ExitGate
	if len(payload.Tags) > 0 {
		gate = service.GateFromTags(payload.Tags)
	} else {
		built, err := a.gates.BuildGate(currentUserID(c))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "构造闸门失败")
			return
		}
		gate = built
	}

	for conditionID, satisfied := range payload.Satisfied {
		if err := gate.Toggle(conditionID, satisfied); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gate.Evaluate())
}
