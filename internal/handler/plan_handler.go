package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/daypilot/internal/db"
	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

type commitmentPayload struct {
	Name         string `json:"name"`
	ActivityType string `json:"activity_type"`
	Start        string `json:"start"`
	End          string `json:"end"`
}

type generatePlanPayload struct {
	Date        string              `json:"date"`
	WakeTime    string              `json:"wake_time"`
	SleepTime   string              `json:"sleep_time"`
	EnergyState string              `json:"energy_state"`
	Commitments []commitmentPayload `json:"commitments"`
}

type skipBlockPayload struct {
	Reason string `json:"reason"`
}

type planNotePayload struct {
	Note string `json:"note"`
}

// GeneratePlan 生成当日计划及其全部时间块
func (a *API) GeneratePlan(c *gin.Context) {
	var payload generatePlanPayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}
	if payload.WakeTime == "" || payload.SleepTime == "" || payload.EnergyState == "" {
		respondError(c, http.StatusBadRequest, "wake_time、sleep_time、energy_state 均为必填")
		return
	}

	date := time.Now()
	if payload.Date != "" {
		parsed, err := time.Parse(dateFormat, payload.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
			return
		}
		date = parsed
	}

	wake, err := parseClockOn(date, payload.WakeTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "起床时间格式应为 HH:MM")
		return
	}
	sleep, err := parseClockOn(date, payload.SleepTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "睡觉时间格式应为 HH:MM")
		return
	}

	input := service.GeneratePlanInput{
		UserID:      currentUserID(c),
		Date:        date,
		WakeTime:    wake,
		SleepTime:   sleep,
		EnergyState: payload.EnergyState,
	}
	for _, commitment := range payload.Commitments {
		start, err := parseClockOn(date, commitment.Start)
		if err != nil {
			respondError(c, http.StatusBadRequest, "固定日程开始时间格式应为 HH:MM")
			return
		}
		end, err := parseClockOn(date, commitment.End)
		if err != nil {
			respondError(c, http.StatusBadRequest, "固定日程结束时间格式应为 HH:MM")
			return
		}
		input.Commitments = append(input.Commitments, service.FixedCommitment{
			Name:         commitment.Name,
			ActivityType: commitment.ActivityType,
			Start:        start,
			End:          end,
		})
	}

	plan, err := a.plans.GeneratePlan(input)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"plan": planToPayload(plan)})
}

// GetPlanByDate 查询某日计划，无计划时返回 plan: null
func (a *API) GetPlanByDate(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateFormat, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
			return
		}
		date = parsed
	}

	plan, err := a.plans.PlanForDate(currentUserID(c), date)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusOK, gin.H{"plan": nil})
			return
		}
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": planToPayload(plan)})
}

// DeletePlan 删除计划并级联清除时间块与出门时刻
func (a *API) DeletePlan(c *gin.Context) {
	planID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.plans.DeletePlan(currentUserID(c), planID); err != nil {
		respondPlanError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompleteBlock 标记时间块完成
func (a *API) CompleteBlock(c *gin.Context) {
	blockID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	block, err := a.plans.CompleteBlock(currentUserID(c), blockID, currentUsername(c))
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"block": blockToPayload(*block)})
}

// UncompleteBlock 将时间块恢复为待办
func (a *API) UncompleteBlock(c *gin.Context) {
	blockID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	block, err := a.plans.UncompleteBlock(currentUserID(c), blockID)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"block": blockToPayload(*block)})
}

// SkipBlock 标记时间块跳过
func (a *API) SkipBlock(c *gin.Context) {
	blockID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload skipBlockPayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	block, err := a.plans.SkipBlock(currentUserID(c), blockID, payload.Reason)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"block": blockToPayload(*block)})
}

// UpdatePlanNote 保存计划的 Markdown 反思笔记
func (a *API) UpdatePlanNote(c *gin.Context) {
	planID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload planNotePayload
	if !bindJSON(c, &payload, "请求体格式错误") {
		return
	}

	if err := a.plans.UpdateNote(currentUserID(c), planID, payload.Note); err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "笔记已保存"})
}

// GetPlanNote 返回笔记原文与消毒后的 HTML
func (a *API) GetPlanNote(c *gin.Context) {
	planID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := a.plans.Get(currentUserID(c), planID)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	html, err := service.RenderNoteHTML(plan.Note)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "笔记渲染失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": plan.Note, "html": html})
}

// GetPlanStats 汇总计划执行情况
func (a *API) GetPlanStats(c *gin.Context) {
	planID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := a.plans.Stats(currentUserID(c), planID)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func respondPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanExists):
		respondError(c, http.StatusConflict, "当日已有计划，可删除后重新生成")
	case errors.Is(err, service.ErrPlanInvalidRange),
		errors.Is(err, service.ErrUnknownEnergyState),
		errors.Is(err, service.ErrCommitmentOutOfRange):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanForbidden), errors.Is(err, service.ErrBlockForbidden):
		respondError(c, http.StatusForbidden, "无权操作该资源")
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrBlockNotFound):
		respondError(c, http.StatusNotFound, "资源不存在")
	default:
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
	}
}

func planToPayload(plan *db.Plan) gin.H {
	blocks := make([]gin.H, 0, len(plan.Blocks))
	for _, block := range plan.Blocks {
		blocks = append(blocks, blockToPayload(block))
	}

	exitTimes := make([]gin.H, 0, len(plan.ExitTimes))
	for _, exit := range plan.ExitTimes {
		exitTimes = append(exitTimes, exitTimeToPayload(exit))
	}

	return gin.H{
		"id":                  plan.ID,
		"plan_date":           plan.PlanDate.Format(dateFormat),
		"wake_time":           plan.WakeTime.Format(time.RFC3339),
		"sleep_time":          plan.SleepTime.Format(time.RFC3339),
		"plan_start":          plan.PlanStart.Format(time.RFC3339),
		"energy_state":        plan.EnergyState,
		"status":              plan.Status,
		"generated_after_now": plan.GeneratedAfterNow,
		"blocks":              blocks,
		"exit_times":          exitTimes,
	}
}

func blockToPayload(block db.TimeBlock) gin.H {
	return gin.H{
		"id":             block.ID,
		"plan_id":        block.PlanID,
		"start_time":     block.StartTime.Format(time.RFC3339),
		"end_time":       block.EndTime.Format(time.RFC3339),
		"activity_type":  block.ActivityType,
		"activity_name":  block.ActivityName,
		"is_fixed":       block.IsFixed,
		"sequence_order": block.SequenceOrder,
		"status":         block.Status,
		"skip_reason":    block.SkipReason,
		"metadata":       block.Metadata,
	}
}

func exitTimeToPayload(exit db.ExitTime) gin.H {
	return gin.H{
		"id":              exit.ID,
		"plan_id":         exit.PlanID,
		"time_block_id":   exit.TimeBlockID,
		"commitment_id":   exit.CommitmentID,
		"commitment_name": exit.CommitmentName,
		"exit_at":         exit.ExitAt.Format(time.RFC3339),
		"travel_minutes":  exit.TravelMinutes,
		"prep_minutes":    exit.PrepMinutes,
		"travel_method":   exit.TravelMethod,
	}
}
