package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yuqie6/TimeBudget/internal/dto"
	"github.com/yuqie6/TimeBudget/internal/eventbus"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"github.com/yuqie6/TimeBudget/internal/service"
)

func (a *apiServer) admin() *service.AdminService {
	return a.core.Services.Admin
}

func (a *apiServer) publish(evtType string, data map[string]any) {
	a.hub.Publish(eventbus.Event{Type: evtType, Data: data})
}

// ===== 分类与规则 =====

func (a *apiServer) handleListClasses(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListClasses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassDTOs(rows))
}

func (a *apiServer) handleAddClass(w http.ResponseWriter, r *http.Request) {
	var req dto.NameRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := a.admin().AddClass(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeRulesChanged, map[string]any{"class_id": id})
	writeJSON(w, http.StatusCreated, dto.IDResponseDTO{ID: id})
}

func (a *apiServer) handleRemoveClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.admin().RemoveClass(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeRulesChanged, map[string]any{"class_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleListRules(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListRules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTOs(rows))
}

func (a *apiServer) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRuleRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := a.admin().AddRule(r.Context(), req.ClassID, req.Priority, req.Pattern)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeRulesChanged, map[string]any{"rule_id": id})
	writeJSON(w, http.StatusCreated, dto.IDResponseDTO{ID: id})
}

func (a *apiServer) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.admin().RemoveRule(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeRulesChanged, map[string]any{"rule_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// ===== 预算与预算配置 =====

func (a *apiServer) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListBudgets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTOs(rows))
}

func (a *apiServer) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var req dto.NameRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := a.admin().AddBudget(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"budget_id": id})
	writeJSON(w, http.StatusCreated, dto.IDResponseDTO{ID: id})
}

func (a *apiServer) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.admin().RemoveBudget(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"budget_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleGetBudgetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	cfg, err := a.admin().GetBudgetConfig(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *apiServer) handleSetBudgetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req dto.ValueRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key := mux.Vars(r)["key"]
	if err := a.admin().SetBudgetConfig(r.Context(), id, key, req.Value); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"budget_id": id, "key": key})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleClearBudgetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	key := mux.Vars(r)["key"]
	if err := a.admin().ClearBudgetConfig(r.Context(), id, key); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"budget_id": id, "key": key})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleListBudgetConfigs(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListBudgetConfigs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetConfigDTOs(rows))
}

// ===== 映射 =====

func (a *apiServer) handleListMappings(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListMappings(r.Context(), userVar(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMappingDTOs(rows))
}

func (a *apiServer) handleAddMapping(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMappingRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	user := userVar(r)
	if err := a.admin().AddMapping(r.Context(), user, req.ClassID, req.BudgetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"user": user, "class_id": req.ClassID, "budget_id": req.BudgetID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleRemoveMapping(w http.ResponseWriter, r *http.Request) {
	classID, err := pathInt64(r, "classId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	budgetID, err := pathInt64(r, "budgetId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	user := userVar(r)
	if err := a.admin().RemoveMapping(r.Context(), user, classID, budgetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeBudgetsChanged, map[string]any{"user": user, "class_id": classID, "budget_id": budgetID})
	w.WriteHeader(http.StatusNoContent)
}

// ===== 键值配置 =====

func (a *apiServer) handleGetUserConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.admin().GetUserConfig(r.Context(), userVar(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *apiServer) handleSetUserConfig(w http.ResponseWriter, r *http.Request) {
	var req dto.ValueRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	user, key := userVar(r), mux.Vars(r)["key"]
	if err := a.admin().SetUserConfig(r.Context(), user, key, req.Value); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeConfigChanged, map[string]any{"user": user, "key": key})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleClearUserConfig(w http.ResponseWriter, r *http.Request) {
	user, key := userVar(r), mux.Vars(r)["key"]
	if err := a.admin().ClearUserConfig(r.Context(), user, key); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publish(eventbus.TypeConfigChanged, map[string]any{"user": user, "key": key})
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleListUserConfigs(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin().ListUserConfigs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []schema.UserConfig{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *apiServer) handleGetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.admin().GetGlobalConfig(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *apiServer) handleSetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	var req dto.ValueRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key := mux.Vars(r)["key"]
	if err := a.admin().SetGlobalConfig(r.Context(), key, req.Value); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.afterGlobalConfigChange(r, key)
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleClearGlobalConfig(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := a.admin().ClearGlobalConfig(r.Context(), key); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.afterGlobalConfigChange(r, key)
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) afterGlobalConfigChange(r *http.Request, key string) {
	if key == schema.GlobalConfigLogLevel {
		a.core.RefreshLogLevel(r.Context())
	}
	a.publish(eventbus.TypeConfigChanged, map[string]any{"key": key})
}
