package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opslens/runboard/internal/app"
	"github.com/opslens/runboard/internal/export"
	"github.com/opslens/runboard/internal/httpserver/httputil"
	"github.com/opslens/runboard/internal/services/report"
	"github.com/opslens/runboard/internal/timeutil"
)

type reportHandler struct {
	container *app.Container
	service   *report.Service
}

func registerReportRoutes(router fiber.Router, container *app.Container) {
	handler := &reportHandler{
		container: container,
		service:   container.Reports,
	}

	group := router.Group("/reports")
	group.Get("/calendar", handler.calendar)
	group.Get("/payment", handler.payment)
}

func (h *reportHandler) calendar(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "report service unavailable")
	}

	start, end, err := h.parseCalendarRange(c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, report.ErrInvalidRange) {
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	buildStart := time.Now()
	table, err := h.service.BuildCalendarReport(c.UserContext(), start, end)
	if h.container.Observability != nil {
		h.container.Observability.RecordReportBuild("calendar", err, time.Since(buildStart))
	}
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	table = report.ApplyFilter(table, parseListParam(c.Query("plans")), parseListParam(c.Query("statuses")))
	if h.container.Observability != nil {
		h.container.Observability.RecordReportRows("calendar", len(table.Rows))
	}
	return h.respond(c, "calendar", table)
}

func (h *reportHandler) payment(c *fiber.Ctx) error {
	if h.service == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "report service unavailable")
	}

	days := h.container.Config.Reporting.DefaultRangeDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "days must be an integer")
		}
		days = parsed
	}

	buildStart := time.Now()
	table, err := h.service.BuildPaymentReport(c.UserContext(), days)
	if h.container.Observability != nil {
		h.container.Observability.RecordReportBuild("payment", err, time.Since(buildStart))
	}
	if err != nil {
		if errors.Is(err, report.ErrInvalidWindow) {
			return httputil.WriteError(c, fiber.StatusBadRequest,
				fmt.Sprintf("days must be between %d and %d", report.MinLookbackDays, report.MaxLookbackDays))
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	table = report.ApplyFilter(table, parseListParam(c.Query("plans")), parseListParam(c.Query("statuses")))
	if h.container.Observability != nil {
		h.container.Observability.RecordReportRows("payment", len(table.Rows))
	}
	return h.respond(c, "payment", table)
}

// parseCalendarRange resolves the requested date range, defaulting to the
// configured trailing window ending today in the reporting timezone.
func (h *reportHandler) parseCalendarRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)

	if startRaw == "" && endRaw == "" {
		loc := h.container.ReportingLoc()
		today := time.Now().In(loc).Format(timeutil.DateKeyFormat)
		end, err := timeutil.ParseDateKey(today)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start := end.AddDate(0, 0, -(h.container.Config.Reporting.DefaultRangeDays - 1))
		return start, end, nil
	}
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end must be provided together", report.ErrInvalidRange)
	}

	start, err := timeutil.ParseDateKey(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q, expected YYYY-MM-DD", report.ErrInvalidRange, startRaw)
	}
	end, err := timeutil.ParseDateKey(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q, expected YYYY-MM-DD", report.ErrInvalidRange, endRaw)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date must not precede start date", report.ErrInvalidRange)
	}
	return start, end, nil
}

func (h *reportHandler) respond(c *fiber.Ctx, mode string, table *report.Table) error {
	if strings.EqualFold(strings.TrimSpace(c.Query("format")), "csv") {
		data, err := export.WriteCSV(table)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		if h.container.Archiver != nil {
			h.container.Archiver.Archive(c.UserContext(), mode, data)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%s_report_%s.csv", mode, time.Now().UTC().Format("20060102")))
		return c.Send(data)
	}

	payload := fiber.Map{
		"columns":     table.Columns,
		"rows":        table.Rows,
		"row_count":   len(table.Rows),
		"diagnostics": table.Diagnostics,
	}
	if table.Empty() {
		payload["message"] = "no data available for the requested window"
	}
	return c.JSON(payload)
}

func parseListParam(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
