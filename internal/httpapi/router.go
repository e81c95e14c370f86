package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yuqie6/TimeBudget/internal/bootstrap"
	"github.com/yuqie6/TimeBudget/internal/eventbus"
)

type apiServer struct {
	core *bootstrap.Core
	hub  *eventbus.Hub
}

// NewHandler 构建带中间件的路由
func NewHandler(core *bootstrap.Core) http.Handler {
	api := &apiServer{core: core, hub: core.Hub}

	r := mux.NewRouter()
	r.Use(withRequestID, withAccessLog, withRecovery)

	r.HandleFunc("/health", api.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", api.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/events", api.handleSSE).Methods(http.MethodGet)

	api.registerTrackingRoutes(r)
	api.registerAdminRoutes(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (a *apiServer) registerTrackingRoutes(r *mux.Router) {
	u := r.PathPrefix("/api/users/{user}").Subrouter()
	u.HandleFunc("/classify", a.handleClassify).Methods(http.MethodPost)
	u.HandleFunc("/activity", a.handleRecordActivity).Methods(http.MethodPost)
	u.HandleFunc("/time-spent", a.handleTimeSpent).Methods(http.MethodGet)
	u.HandleFunc("/time-by-title", a.handleTimeByTitle).Methods(http.MethodGet)
	u.HandleFunc("/time-left", a.handleTimeLeft).Methods(http.MethodGet)
	u.HandleFunc("/title-sequence", a.handleTitleSequence).Methods(http.MethodGet)
	u.HandleFunc("/overrides", a.handleListOverrides).Methods(http.MethodGet)
	u.HandleFunc("/overrides/{date}/{budgetId}/minutes", a.handleOverrideMinutes).Methods(http.MethodPut)
	u.HandleFunc("/overrides/{date}/{budgetId}/unlock", a.handleOverrideUnlock).Methods(http.MethodPut)
	u.HandleFunc("/overrides/{date}/{budgetId}", a.handleClearOverride).Methods(http.MethodDelete)

	r.HandleFunc("/api/users", a.handleListUsers).Methods(http.MethodGet)
}

func (a *apiServer) registerAdminRoutes(r *mux.Router) {
	r.HandleFunc("/api/classes", a.handleListClasses).Methods(http.MethodGet)
	r.HandleFunc("/api/classes", a.handleAddClass).Methods(http.MethodPost)
	r.HandleFunc("/api/classes/{id}", a.handleRemoveClass).Methods(http.MethodDelete)

	r.HandleFunc("/api/rules", a.handleListRules).Methods(http.MethodGet)
	r.HandleFunc("/api/rules", a.handleAddRule).Methods(http.MethodPost)
	r.HandleFunc("/api/rules/{id}", a.handleRemoveRule).Methods(http.MethodDelete)

	r.HandleFunc("/api/budgets", a.handleListBudgets).Methods(http.MethodGet)
	r.HandleFunc("/api/budgets", a.handleAddBudget).Methods(http.MethodPost)
	r.HandleFunc("/api/budgets/{id}", a.handleRemoveBudget).Methods(http.MethodDelete)
	r.HandleFunc("/api/budgets/{id}/config", a.handleGetBudgetConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/budgets/{id}/config/{key}", a.handleSetBudgetConfig).Methods(http.MethodPut)
	r.HandleFunc("/api/budgets/{id}/config/{key}", a.handleClearBudgetConfig).Methods(http.MethodDelete)
	r.HandleFunc("/api/budget-configs", a.handleListBudgetConfigs).Methods(http.MethodGet)

	r.HandleFunc("/api/users/{user}/mappings", a.handleListMappings).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{user}/mappings", a.handleAddMapping).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{user}/mappings/{classId}/{budgetId}", a.handleRemoveMapping).Methods(http.MethodDelete)

	r.HandleFunc("/api/users/{user}/config", a.handleGetUserConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{user}/config/{key}", a.handleSetUserConfig).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{user}/config/{key}", a.handleClearUserConfig).Methods(http.MethodDelete)
	r.HandleFunc("/api/user-configs", a.handleListUserConfigs).Methods(http.MethodGet)

	r.HandleFunc("/api/config", a.handleGetGlobalConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config/{key}", a.handleSetGlobalConfig).Methods(http.MethodPut)
	r.HandleFunc("/api/config/{key}", a.handleClearGlobalConfig).Methods(http.MethodDelete)
}
