package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kaiwenliang/nongli-api/internal/calendar"
	"github.com/kaiwenliang/nongli-api/internal/config"
	"github.com/kaiwenliang/nongli-api/internal/database"
	"github.com/kaiwenliang/nongli-api/internal/ephemeris"
	"github.com/kaiwenliang/nongli-api/internal/julian"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	table  *ephemeris.Table
	db     *database.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(table *ephemeris.Table, db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		table:  table,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// SexagenaryInfo is one cycle position with its stem-branch name.
type SexagenaryInfo struct {
	Cycle int    `json:"cycle"` // 1..60
	Name  string `json:"name"`  // e.g. 甲子
}

// LunisolarDate is the lunisolar side of a conversion result.
type LunisolarDate struct {
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	Leap      bool           `json:"leap"`
	Day       int            `json:"day"`
	MonthName string         `json:"month_name"`
	DayName   string         `json:"day_name"`
	YearCycle SexagenaryInfo `json:"year_cycle"`
	DayCycle  SexagenaryInfo `json:"day_cycle"`
}

// TermInfo describes the principal solar term in effect on a day.
type TermInfo struct {
	Name      string `json:"name"`
	Longitude int    `json:"longitude"`
	Since     string `json:"since"` // Gregorian date of the crossing day
}

// ConversionResult is the full response for a date conversion.
type ConversionResult struct {
	Gregorian string        `json:"gregorian"`
	JDN       int           `json:"jdn"`
	Weekday   string        `json:"weekday"`
	Lunisolar LunisolarDate `json:"lunisolar"`
	Term      *TermInfo     `json:"term,omitempty"`
}

// MonthInfo describes one month of a lunisolar year.
type MonthInfo struct {
	Num   int    `json:"num"`
	Leap  bool   `json:"leap"`
	Name  string `json:"name"`
	Start string `json:"start"` // Gregorian date of the first day
	Days  int    `json:"days"`
}

// AnnusResult is the response for a lunisolar year lookup.
type AnnusResult struct {
	Year      int            `json:"year"`
	LeapYear  bool           `json:"leap_year"`
	YearCycle SexagenaryInfo `json:"year_cycle"`
	Months    []MonthInfo    `json:"months"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check database health
	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	first, last := h.table.Coverage()
	WriteSuccess(w, map[string]string{
		"status":         "healthy",
		"coverage_start": julian.Format(first),
		"coverage_end":   julian.Format(last),
	})
}

// ConvertDate handles GET /api/v1/convert/{YYYY-MM-DD}
func (h *Handlers) ConvertDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	jdn, err := parseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	h.writeConversion(w, r, jdn)
}

// ConvertToday handles GET /api/v1/convert/today
//
// "Today" is the current civil day in UTC+8, the time zone the calendar
// is defined in, regardless of the server's local zone.
func (h *Handlers) ConvertToday(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(beijingZone)
	jdn, err := julian.ToJDN(now.Year(), int(now.Month()), now.Day())
	if err != nil {
		h.logger.Error("current date out of range", slog.Any("error", err))
		WriteInternalError(w, "Failed to resolve current date")
		return
	}

	h.writeConversion(w, r, jdn)
}

var beijingZone = time.FixedZone("UTC+8", ephemeris.CSTOffsetMinutes*60)

// writeConversion resolves a civil day and writes the conversion result.
func (h *Handlers) writeConversion(w http.ResponseWriter, r *http.Request, jdn int) {
	annus, err := calendar.FromDate(h.table, jdn)
	if err != nil {
		h.writeCalendarError(w, r, jdn, err)
		return
	}

	year, month, day, err := annus.YMDFor(jdn)
	if err != nil {
		h.writeCalendarError(w, r, jdn, err)
		return
	}

	yearCycle := calendar.SexagenaryYear(year)
	dayCycle := calendar.SexagenaryDay(jdn)

	// The governing term can be missing for the first days of coverage;
	// the conversion itself is still valid then.
	var termInfo *TermInfo
	if term, name, err := calendar.CurrentTerm(h.table, jdn); err == nil {
		termInfo = &TermInfo{
			Name:      name,
			Longitude: term.Longitude,
			Since:     julian.Format(term.JDN),
		}
	}

	WriteSuccess(w, ConversionResult{
		Gregorian: julian.Format(jdn),
		JDN:       jdn,
		Weekday:   weekdayNames[julian.Weekday(jdn)],
		Lunisolar: LunisolarDate{
			Year:      year,
			Month:     month.Num,
			Leap:      month.Leap,
			Day:       day,
			MonthName: calendar.MonthName(month),
			DayName:   calendar.DayName(day),
			YearCycle: SexagenaryInfo{Cycle: yearCycle, Name: calendar.SexagenaryName(yearCycle)},
			DayCycle:  SexagenaryInfo{Cycle: dayCycle, Name: calendar.SexagenaryName(dayCycle)},
		},
		Term: termInfo,
	})
}

// GetAnnus handles GET /api/v1/annus/{year}
func (h *Handlers) GetAnnus(w http.ResponseWriter, r *http.Request) {
	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	// The year's span closes at its December solstice, so anchoring at
	// the end of the previous year opens it.
	anchor, err := julian.ToJDN(year-1, 12, 31)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	annus, err := calendar.Build(h.table, anchor)
	if err != nil {
		h.writeCalendarError(w, r, anchor, err)
		return
	}

	months := make([]MonthInfo, 0, len(annus.Months))
	for _, m := range annus.Months {
		months = append(months, MonthInfo{
			Num:   m.Num,
			Leap:  m.Leap,
			Name:  calendar.MonthName(m),
			Start: julian.Format(m.Start),
			Days:  m.Days,
		})
	}

	yearCycle := calendar.SexagenaryYear(annus.Year)
	WriteSuccess(w, AnnusResult{
		Year:      annus.Year,
		LeapYear:  annus.IsLeapYear(),
		YearCycle: SexagenaryInfo{Cycle: yearCycle, Name: calendar.SexagenaryName(yearCycle)},
		Months:    months,
	})
}

// GetJDN handles GET /api/v1/jdn/{YYYY-MM-DD}
func (h *Handlers) GetJDN(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")

	jdn, err := parseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	dayCycle := calendar.SexagenaryDay(jdn)
	WriteSuccess(w, map[string]interface{}{
		"gregorian": julian.Format(jdn),
		"jdn":       jdn,
		"weekday":   weekdayNames[julian.Weekday(jdn)],
		"day_cycle": SexagenaryInfo{Cycle: dayCycle, Name: calendar.SexagenaryName(dayCycle)},
	})
}

// writeCalendarError maps calendar and ephemeris errors to HTTP responses.
func (h *Handlers) writeCalendarError(w http.ResponseWriter, r *http.Request, jdn int, err error) {
	switch {
	case errors.Is(err, ephemeris.ErrOutOfRange):
		first, last := h.table.Coverage()
		WriteNotFound(w, fmt.Sprintf("Date not supported: ephemeris covers %s to %s",
			julian.Format(first), julian.Format(last)))
	default:
		h.logger.Error("calendar reconstruction failed",
			slog.Int("jdn", jdn),
			slog.Any("error", err),
			slog.String("request_id", r.Header.Get("X-Request-ID")))
		WriteInternalError(w, "Failed to reconstruct calendar")
	}
}

// parseDate parses a YYYY-MM-DD string into a Julian day number. The
// year part may be negative.
func parseDate(s string) (int, error) {
	var year, month, day int
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &year, &month, &day); err != nil {
		return 0, fmt.Errorf("%w: %q", julian.ErrInvalidDate, s)
	}
	return julian.ToJDN(year, month, day)
}
