package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_tracker/api"
	"sales_tracker/internal/sales"
)

func TestRun_AddAndDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	svc := sales.NewService(sales.NewLocalStorage(), logger, nil)
	srv := httptest.NewServer(api.NewRouter(svc, logger, time.UTC))
	defer srv.Close()
	ctx := context.Background()

	var out bytes.Buffer
	err := run(ctx, []string{"-server", srv.URL, "add", "-product", "Laptop", "-customer", "Acme Corp", "-amount", "1200", "-date", "2024-06-15"}, &out)
	require.NoError(t, err)

	var created sales.Sale
	require.NoError(t, json.Unmarshal(out.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	out.Reset()
	require.NoError(t, run(ctx, []string{"-server", srv.URL, "dashboard", "-product", "Laptop", "-from", "2024-06-15", "-to", "2024-06-15"}, &out))
	var dash struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &dash))
	assert.Equal(t, 1200.0, dash.Total)

	out.Reset()
	require.NoError(t, run(ctx, []string{"-server", srv.URL, "list"}, &out))
	assert.Contains(t, out.String(), created.ID)
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer

	assert.ErrorContains(t, run(context.Background(), nil, &out), "missing command")
	assert.ErrorContains(t, run(context.Background(), []string{"remove"}, &out), `unknown command "remove"`)
	assert.ErrorContains(t, run(context.Background(), []string{"dashboard", "-from", "June"}, &out), `invalid -from "June"`)
}
