package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/yuqie6/TimeBudget/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "code": status})
}

// writeServiceError 将服务层错误映射为 HTTP 状态码
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("请求处理失败", "path", r.URL.Path, "request_id", requestIDFromCtx(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func readJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func parseInt64Param(value string) (int64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, errors.New("参数为空")
	}
	return strconv.ParseInt(v, 10, 64)
}

// pathInt64 读取路径变量中的整数
func pathInt64(r *http.Request, name string) (int64, error) {
	n, err := parseInt64Param(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s 非法", service.ErrValidation, name)
	}
	return n, nil
}
