package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/yuqie6/TimeBudget/internal/dto"
	"github.com/yuqie6/TimeBudget/internal/eventbus"
	"github.com/yuqie6/TimeBudget/internal/pkg/buildinfo"
	"github.com/yuqie6/TimeBudget/internal/pkg/config"
	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/service"
)

func (a *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	c := a.core
	now := time.Now()
	out := dto.StatusDTO{
		App: dto.AppStatusDTO{
			Name:      c.Cfg.App.Name,
			Version:   buildinfo.Version,
			Commit:    buildinfo.Commit,
			StartedAt: c.StartedAt.Format(time.RFC3339),
			UptimeSec: int64(now.Sub(c.StartedAt).Seconds()),
			SafeMode:  c.DB.SafeMode,
			LogLevel:  config.Level().String(),
		},
		Storage: dto.StorageStatusDTO{
			DBPath:         c.DB.Path,
			SchemaVersion:  c.DB.SchemaVersion,
			SafeModeReason: c.DB.MigrationError,
		},
		Tracking: dto.TrackingStatusDTO{
			SessionGapSec: c.Cfg.Tracking.SessionGapSec,
			FocusOnly:     c.Cfg.Tracking.FocusOnly,
		},
		Events: dto.EventsStatusDTO{
			Subscribers: a.hub.Subscribers(),
			Dropped:     a.hub.Dropped(),
		},
	}
	writeJSON(w, http.StatusOK, out)
}

func userVar(r *http.Request) string {
	return mux.Vars(r)["user"]
}

// dayStart 解析 YYYY-MM-DD 为当天零点；空串返回 def
func (a *apiServer) dayStart(raw string, def int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	start, _, err := repository.DayRange(raw, a.tb().Location())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return start, nil
}

// dayEnd 解析 YYYY-MM-DD 为次日零点（区间右开）；空串返回 0 表示不设上限
func (a *apiServer) dayEnd(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	_, end, err := repository.DayRange(raw, a.tb().Location())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return end, nil
}

// dateOrToday 空串返回服务时钟下的今天
func (a *apiServer) dateOrToday(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return a.tb().Now().Format(repository.DateLayout)
	}
	return raw
}

func (a *apiServer) tb() *service.TimeBudgetService {
	return a.core.Services.TimeBudget
}

func (a *apiServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req dto.ClassifyRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := a.tb().Classify(r.Context(), userVar(r), req.Titles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassificationDTOs(res))
}

func (a *apiServer) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordActivityRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	focus := service.NoFocus
	if req.FocusIndex != nil {
		focus = *req.FocusIndex
	}
	user := userVar(r)
	ts := a.tb().Now().Unix()
	res, err := a.tb().RecordSnapshot(r.Context(), user, ts, req.Titles, focus)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.hub.Publish(eventbus.Event{
		Type: eventbus.TypeActivityRecorded,
		Data: map[string]any{"user": user, "ts": ts, "titles": len(req.Titles)},
	})
	writeJSON(w, http.StatusOK, toClassificationDTOs(res))
}

func (a *apiServer) handleTimeSpent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := a.dayStart(q.Get("from"), service.WeekStart(a.tb().Now()).Unix())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	to, err := a.dayEnd(q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	spent, err := a.tb().TimeSpentByBudgetAndDate(r.Context(), userVar(r), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetTimeSpentDTOs(spent))
}

func (a *apiServer) handleTimeByTitle(w http.ResponseWriter, r *http.Request) {
	from, err := a.dayStart(a.dateOrToday(r.URL.Query().Get("date")), 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows, err := a.tb().TimeSpentByTitle(r.Context(), userVar(r), from)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTitleTimeDTOs(rows, a.tb().Location()))
}

func (a *apiServer) handleTimeLeft(w http.ResponseWriter, r *http.Request) {
	rows, err := a.tb().TimeLeftToday(r.Context(), userVar(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetLeftDTOs(rows))
}

func (a *apiServer) handleTitleSequence(w http.ResponseWriter, r *http.Request) {
	rows, err := a.tb().TitleSequence(r.Context(), userVar(r), a.dateOrToday(r.URL.Query().Get("date")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSampleDTOs(rows, a.tb().Location()))
}

func (a *apiServer) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	rows, err := a.tb().RecentOverrides(r.Context(), userVar(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverrideDTOs(rows))
}

// overrideKey 读取路径中的 (user, date, budgetId)
func overrideKey(r *http.Request) (user, date string, budgetID int64, err error) {
	budgetID, err = pathInt64(r, "budgetId")
	if err != nil {
		return "", "", 0, err
	}
	return userVar(r), mux.Vars(r)["date"], budgetID, nil
}

func (a *apiServer) publishOverride(user, date string, budgetID int64) {
	a.hub.Publish(eventbus.Event{
		Type: eventbus.TypeOverrideChanged,
		Data: map[string]any{"user": user, "date": date, "budget_id": budgetID},
	})
}

func (a *apiServer) handleOverrideMinutes(w http.ResponseWriter, r *http.Request) {
	user, date, budgetID, err := overrideKey(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req dto.MinutesRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := a.core.Services.Admin.OverrideMinutes(r.Context(), user, date, budgetID, req.Minutes); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publishOverride(user, date, budgetID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleOverrideUnlock(w http.ResponseWriter, r *http.Request) {
	user, date, budgetID, err := overrideKey(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.core.Services.Admin.OverrideUnlock(r.Context(), user, date, budgetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publishOverride(user, date, budgetID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	user, date, budgetID, err := overrideKey(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.core.Services.Admin.ClearOverride(r.Context(), user, date, budgetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a.publishOverride(user, date, budgetID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.tb().Users(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, users)
}
