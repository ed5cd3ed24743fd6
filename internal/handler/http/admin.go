package http

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/service"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var clickLogCSVHeader = []string{"shortId", "at", "ip", "userAgent", "referer"}

// AdminHandler обработчик административных эндпоинтов
type AdminHandler struct {
	admin *service.AdminService
	log   *zap.Logger
	now   func() time.Time
}

// NewAdminHandler создает новый обработчик администратора
func NewAdminHandler(admin *service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log, now: time.Now}
}

// Stats возвращает общую статистику
//
//	@Summary		System totals
//	@Description	Number of links, total clicks and stored click logs
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	service.AdminStats
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Router			/api/admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Not found")
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

// ExportLogs выгружает журнал кликов в CSV
//
//	@Summary		Export click logs
//	@Description	Streams click logs as CSV, newest first. from/to accept RFC3339 or YYYY-MM-DD and are inclusive.
//	@Tags			Admin
//	@Produce		text/csv
//	@Security		BearerAuth
//	@Param			from	query		string	false	"Range start"
//	@Param			to		query		string	false	"Range end"
//	@Success		200		{string}	string	"CSV file"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/api/admin/export-logs [get]
func (h *AdminHandler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLogFilter(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := &csvExport{w: w, filename: fmt.Sprintf("click-logs-%s.csv", h.now().UTC().Format("20060102-150405"))}

	err = h.admin.ExportClickLogs(r.Context(), filter, out.writeRow)
	if err != nil && !out.started {
		writeServiceError(w, h.log, err, "Not found")
		return
	}
	if err != nil {
		// заголовки уже отправлены, остается только оборвать выгрузку
		h.log.Error("click log export aborted", zap.Int("rows", out.rows), zap.Error(err))
		return
	}

	if err := out.finish(); err != nil {
		h.log.Error("failed to flush click log export", zap.Error(err))
		return
	}
	h.log.Info("click logs exported", zap.Int("rows", out.rows))
}

// csvExport defers the 200 and the CSV header until the first row so that
// errors raised before any row can still produce a JSON error response.
type csvExport struct {
	w        http.ResponseWriter
	cw       *csv.Writer
	filename string
	started  bool
	rows     int
}

func (e *csvExport) start() error {
	if e.started {
		return nil
	}
	e.started = true
	e.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	e.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.filename))
	e.w.WriteHeader(http.StatusOK)
	e.cw = csv.NewWriter(e.w)
	return e.cw.Write(clickLogCSVHeader)
}

func (e *csvExport) writeRow(l *domain.ClickLog) error {
	if err := e.start(); err != nil {
		return err
	}
	err := e.cw.Write([]string{
		l.ShortID,
		l.At.UTC().Format(time.RFC3339),
		domain.StringValue(l.IP),
		domain.StringValue(l.UserAgent),
		domain.StringValue(l.Referer),
	})
	if err != nil {
		return err
	}
	e.rows++
	if e.rows%500 == 0 {
		e.cw.Flush()
		return e.cw.Error()
	}
	return nil
}

func (e *csvExport) finish() error {
	if err := e.start(); err != nil {
		return err
	}
	e.cw.Flush()
	return e.cw.Error()
}

// parseLogFilter reads the optional from/to bounds. A date-only "to" covers the whole day.
func parseLogFilter(r *http.Request) (repository.ClickLogFilter, error) {
	var filter repository.ClickLogFilter

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, _, err := parseBound(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from date: %q", raw)
		}
		filter.From = &from
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		to, dateOnly, err := parseBound(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to date: %q", raw)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}

	return filter, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
