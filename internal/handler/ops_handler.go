package handler

import (
	"net/http"

	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OpsHandler struct {
	reconciliation queue.Queue[model.ReconciliationCase]
	events         service.EventService
}

func NewOpsHandler(reconciliation queue.Queue[model.ReconciliationCase], events service.EventService) *OpsHandler {
	return &OpsHandler{reconciliation: reconciliation, events: events}
}

func (h *OpsHandler) RegisterRoutes(organizer *gin.RouterGroup) {
	organizer.GET("ops/reconciliation", h.ListReconciliation)
}

type ListReconciliationQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// ListReconciliation 最近需要人工退款的付款，新的在前。
// limit 套用在整個佇列上，只回傳呼叫者自己活動的案件。
func (h *OpsHandler) ListReconciliation(c *gin.Context) {
	var query ListReconciliationQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}
	if query.Limit == 0 {
		query.Limit = 100
	}

	events, err := h.events.ListByOrganizer(c.Request.Context(), actor(c))
	if err != nil {
		handleError(c, err, "ListReconciliation")
		return
	}
	owned := make(map[uuid.UUID]struct{}, len(events))
	for _, e := range events {
		owned[e.EventID] = struct{}{}
	}

	recent, err := h.reconciliation.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		handleError(c, err, "ListReconciliation")
		return
	}
	cases := make([]*model.ReconciliationCase, 0, len(recent))
	for _, rc := range recent {
		if _, ok := owned[rc.EventID]; ok {
			cases = append(cases, rc)
		}
	}
	handleSuccess(c, gin.H{"cases": cases, "count": len(cases)}, http.StatusOK)
}
