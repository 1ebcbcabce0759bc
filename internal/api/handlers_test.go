package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/kaiwenliang/nongli-api/internal/config"
	"github.com/kaiwenliang/nongli-api/internal/database"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// Fixture events for the 2016-12-21 through 2017-12-22 solstice span,
// a year with a leap 6th month. Civil days are UTC+8.
var (
	fixtureMoons = []int{
		2457722, 2457752, 2457782, 2457811, 2457841, 2457870, 2457900,
		2457929, 2457958, 2457988, 2458017, 2458047, 2458076, 2458106,
	}
	fixtureTerms = []int{
		2457744, 2457774, 2457803, 2457833, 2457864, 2457895, 2457926,
		2457957, 2457989, 2458020, 2458050, 2458080, 2458110,
	}
)

// testEnv sets up a complete test environment with database, fixture
// table, and router.
type testEnv struct {
	db     *database.DB
	router http.Handler
}

// setupTest creates a fresh test environment
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	// Create in-memory database
	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(dbCfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	// Seed the fixture events and load the table through the same path
	// the server uses.
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		for _, jdn := range fixtureMoons {
			e := database.Event{Kind: database.KindNewMoon, JDN: jdn, TDB: float64(jdn) - 0.3}
			if err := tx.InsertEvent(ctx, &e); err != nil {
				return err
			}
		}
		lon := 270
		for _, jdn := range fixtureTerms {
			l := lon
			e := database.Event{Kind: database.KindSolarTerm, JDN: jdn, TDB: float64(jdn) - 0.3, Longitude: &l}
			if err := tx.InsertEvent(ctx, &e); err != nil {
				return err
			}
			lon = (lon + 30) % 360
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed fixture events: %v", err)
	}

	table, err := db.LoadTable(ctx)
	if err != nil {
		t.Fatalf("load fixture table: %v", err)
	}

	cfg := &config.Config{
		Port:         8080,
		Env:          config.EnvDevelopment,
		DatabasePath: ":memory:",
		LogLevel:     "error",
		LogFormat:    "text",
	}

	handlers := NewHandlers(table, db, cfg, logger)
	return &testEnv{
		db:     db,
		router: SetupRoutes(handlers, logger),
	}
}

// get performs a GET against the router and decodes the envelope.
func (env *testEnv) get(t *testing.T, path string, data interface{}) (int, *ErrorInfo) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response for %s: %v (body %q)", path, err, rec.Body.String())
	}
	if resp.Success && data != nil {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("decode data for %s: %v", path, err)
		}
	}
	return rec.Code, resp.Error
}

// =============================================================================
// TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	var data map[string]string
	status, _ := env.get(t, "/health", &data)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if data["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", data["status"])
	}
	if data["coverage_start"] != "2016-12-21" || data["coverage_end"] != "2017-12-22" {
		t.Errorf("coverage = %s .. %s, want 2016-12-21 .. 2017-12-22",
			data["coverage_start"], data["coverage_end"])
	}
}

func TestConvertDate_LeapMonthStart(t *testing.T) {
	env := setupTest(t)

	var data ConversionResult
	status, _ := env.get(t, "/api/v1/convert/2017-07-23", &data)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if data.JDN != 2457958 {
		t.Errorf("JDN = %d, want 2457958", data.JDN)
	}
	if data.Weekday != "Sunday" {
		t.Errorf("Weekday = %q, want Sunday", data.Weekday)
	}

	ls := data.Lunisolar
	if ls.Year != 2017 || ls.Month != 6 || !ls.Leap || ls.Day != 1 {
		t.Errorf("lunisolar = %+v, want year 2017 leap month 6 day 1", ls)
	}
	if ls.MonthName != "閏六月" {
		t.Errorf("MonthName = %q, want 閏六月", ls.MonthName)
	}
	if ls.DayName != "初一" {
		t.Errorf("DayName = %q, want 初一", ls.DayName)
	}
	if ls.YearCycle.Cycle != 34 || ls.YearCycle.Name != "丁酉" {
		t.Errorf("YearCycle = %+v, want 34 丁酉", ls.YearCycle)
	}

	// 大暑 was crossed the day before.
	if data.Term == nil || data.Term.Name != "大暑" || data.Term.Since != "2017-07-22" {
		t.Errorf("Term = %+v, want 大暑 since 2017-07-22", data.Term)
	}
}

func TestConvertDate_LunarNewYear(t *testing.T) {
	env := setupTest(t)

	var data ConversionResult
	status, _ := env.get(t, "/api/v1/convert/2017-01-28", &data)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	ls := data.Lunisolar
	if ls.Year != 2017 || ls.Month != 1 || ls.Leap || ls.Day != 1 {
		t.Errorf("lunisolar = %+v, want year 2017 month 1 day 1", ls)
	}
	if ls.MonthName != "正月" {
		t.Errorf("MonthName = %q, want 正月", ls.MonthName)
	}
}

func TestConvertDate_BadInput(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		path string
	}{
		{"not a date", "/api/v1/convert/notadate"},
		{"nonexistent day", "/api/v1/convert/2017-02-30"},
		{"month 13", "/api/v1/convert/2017-13-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errInfo := env.get(t, tt.path, nil)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if errInfo == nil || errInfo.Code != "BAD_REQUEST" {
				t.Errorf("error = %+v, want BAD_REQUEST", errInfo)
			}
		})
	}
}

func TestConvertDate_OutsideCoverage(t *testing.T) {
	env := setupTest(t)

	status, errInfo := env.get(t, "/api/v1/convert/2000-01-01", nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if errInfo == nil || errInfo.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", errInfo)
	}
}

func TestGetAnnus(t *testing.T) {
	env := setupTest(t)

	var data AnnusResult
	status, _ := env.get(t, "/api/v1/annus/2017", &data)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if data.Year != 2017 || !data.LeapYear {
		t.Errorf("got year %d leap=%v, want 2017 leap year", data.Year, data.LeapYear)
	}
	if len(data.Months) != 13 {
		t.Fatalf("got %d months, want 13", len(data.Months))
	}

	leap := data.Months[8]
	if !leap.Leap || leap.Num != 6 || leap.Name != "閏六月" || leap.Start != "2017-07-23" {
		t.Errorf("Months[8] = %+v, want leap month 6 starting 2017-07-23", leap)
	}
	if data.YearCycle.Name != "丁酉" {
		t.Errorf("YearCycle = %+v, want 丁酉", data.YearCycle)
	}
}

func TestGetAnnus_BadYear(t *testing.T) {
	env := setupTest(t)

	status, _ := env.get(t, "/api/v1/annus/seventeen", nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestGetAnnus_OutsideCoverage(t *testing.T) {
	env := setupTest(t)

	status, _ := env.get(t, "/api/v1/annus/1998", nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestGetJDN(t *testing.T) {
	env := setupTest(t)

	var data struct {
		Gregorian string         `json:"gregorian"`
		JDN       int            `json:"jdn"`
		Weekday   string         `json:"weekday"`
		DayCycle  SexagenaryInfo `json:"day_cycle"`
	}
	status, _ := env.get(t, "/api/v1/jdn/2000-01-01", &data)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if data.JDN != 2451545 {
		t.Errorf("JDN = %d, want 2451545", data.JDN)
	}
	if data.Weekday != "Saturday" {
		t.Errorf("Weekday = %q, want Saturday", data.Weekday)
	}
	if data.Gregorian != "2000-01-01" {
		t.Errorf("Gregorian = %q, want 2000-01-01", data.Gregorian)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert/2017-01-28", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight missing Access-Control-Allow-Origin header")
	}
}
