package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_tracker/internal/sales"
)

type brokenStorage struct{}

func (brokenStorage) Append(context.Context, sales.Candidate) (sales.Sale, error) {
	return sales.Sale{}, errors.New("disk full")
}
func (brokenStorage) ListAll(context.Context) ([]sales.Sale, error) {
	return nil, errors.New("disk full")
}

func initRoutesTests(t *testing.T, storage sales.Storage) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	svc := sales.NewService(storage, logger, nil)
	return NewRouter(svc, logger, time.UTC)
}

func postJSON(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type dashboardResponse struct {
	Sales     []sales.Sale         `json:"sales"`
	Total     float64              `json:"total"`
	ByProduct map[string]float64   `json:"by_product"`
	Chart     []sales.ProductTotal `json:"chart"`
	Products  []string             `json:"products"`
	Customers []string             `json:"customers"`
}

func getDashboard(t *testing.T, router *gin.Engine, query url.Values) (int, dashboardResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sales/dashboard?"+query.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dashboardResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

// TestSalesHappyPath_FullFlow exercises POST -> GET list -> GET dashboard.
func TestSalesHappyPath_FullFlow(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	var saleID string

	t.Run("POST_CreateSale", func(t *testing.T) {
		w := postJSON(t, router, map[string]any{
			"product":  "Laptop",
			"customer": "Acme Corp",
			"amount":   1200,
			"date":     "2024-06-15T00:00:00.000Z",
		})

		assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP 201 Created status for successful sale creation")

		var createdSale sales.Sale
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createdSale))
		assert.NotEmpty(t, createdSale.ID, "Expected sale ID to be generated")
		assert.Equal(t, "Laptop", createdSale.Product)
		assert.Equal(t, "Acme Corp", createdSale.Customer)
		assert.Equal(t, 1200.0, createdSale.Amount)
		assert.True(t, createdSale.Date.Equal(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))

		saleID = createdSale.ID
	})

	if saleID == "" {
		t.Fatal("Sale ID was not successfully generated in POST_CreateSale step.")
	}

	t.Run("POST_CreateSaleWithTextAmount", func(t *testing.T) {
		w := postJSON(t, router, map[string]any{
			"product":  "Keyboard",
			"customer": "Globex Inc",
			"amount":   "75",
			"date":     "2024-06-20",
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("GET_ListSales", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Results []sales.Sale `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Results, 2)
		assert.Equal(t, "Keyboard", response.Results[0].Product, "Expected most recent sale first")
		assert.Equal(t, saleID, response.Results[1].ID)
	})

	t.Run("GET_DashboardByProduct", func(t *testing.T) {
		code, resp := getDashboard(t, router, url.Values{"product": {"Laptop"}})

		assert.Equal(t, http.StatusOK, code)
		require.Len(t, resp.Sales, 1)
		assert.Equal(t, saleID, resp.Sales[0].ID)
		assert.Equal(t, 1200.0, resp.Total)
		assert.Equal(t, map[string]float64{"Laptop": 1200}, resp.ByProduct)
		assert.Equal(t, []sales.ProductTotal{{Name: "Laptop", Total: 1200}}, resp.Chart)
		assert.Equal(t, []string{"Laptop", "Keyboard"}, resp.Products)
	})

	t.Run("GET_DashboardUnknownProduct", func(t *testing.T) {
		code, resp := getDashboard(t, router, url.Values{"product": {"Tablet"}})

		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, resp.Sales)
		assert.NotNil(t, resp.Sales)
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.ByProduct)
	})

	t.Run("GET_DashboardDateRange", func(t *testing.T) {
		code, resp := getDashboard(t, router, url.Values{"from": {"2024-06-15"}, "to": {"2024-06-15"}})

		assert.Equal(t, http.StatusOK, code)
		require.Len(t, resp.Sales, 1)
		assert.Equal(t, saleID, resp.Sales[0].ID)
	})
}

func TestCreateSale_FormBody(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	form := url.Values{
		"product":  {"Monitor"},
		"customer": {"Acme Corp"},
		"amount":   {"300.50"},
		"date":     {"2024-07-01"},
	}
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var created sales.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 300.5, created.Amount)
}

func TestCreateSale_ValidationErrors(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	w := postJSON(t, router, map[string]any{
		"product":  "L",
		"customer": "A",
		"amount":   -3,
		"date":     "yesterday",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Errors []sales.ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	fields := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Message)
	}
	assert.ElementsMatch(t, []string{"product", "customer", "amount", "date"}, fields)
}

func TestCreateSale_MalformedJSON(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request payload"}`, w.Body.String())
}

func TestStorageFault(t *testing.T) {
	router := initRoutesTests(t, brokenStorage{})

	w := postJSON(t, router, map[string]any{
		"product":  "Laptop",
		"customer": "Acme Corp",
		"amount":   10,
		"date":     "2024-06-15",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to save sale"}`, w.Body.String())

	code, _ := getDashboard(t, router, url.Values{})
	assert.Equal(t, http.StatusInternalServerError, code)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboard_InvalidBounds(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	req := httptest.NewRequest(http.MethodGet, "/sales/dashboard?from=June&to=2024-13-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"from"`)
	assert.Contains(t, w.Body.String(), `"field":"to"`)
}

func TestDashboard_InvertedRangeIsEmptyNotError(t *testing.T) {
	storage := sales.NewLocalStorage()
	router := initRoutesTests(t, storage)
	for _, c := range sales.DemoSales() {
		_, err := storage.Append(context.Background(), c)
		require.NoError(t, err)
	}

	code, resp := getDashboard(t, router, url.Values{"from": {"2024-07-10"}, "to": {"2024-06-01"}})

	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Sales)
	assert.Len(t, resp.Products, 4)
}

func TestPing(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestCreateSale_OverflowingAmountKeepsDashboardUsable(t *testing.T) {
	router := initRoutesTests(t, sales.NewLocalStorage())

	w := postJSON(t, router, map[string]any{
		"product":  "Laptop",
		"customer": "Acme Corp",
		"amount":   "1e309",
		"date":     "2024-06-15",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"amount"`)

	code, resp := getDashboard(t, router, url.Values{})
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Sales)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}
