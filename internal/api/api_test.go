package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/report"
	"github.com/nuclear-hardware/hms/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	db      *sql.DB
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T) (*testServer, string) {
	t.Helper()
	database := db.NewTestDB(t)
	m := metrics.New()
	router := NewRouter(database, testJWTSecret, Options{Metrics: m})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	hash, _ := auth.HashPassword("password")
	if _, err := store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	s := &testServer{Server: server, db: database, metrics: m}
	return s, s.login(t, "admin", "password", http.StatusOK)
}

// login posts credentials and returns the token when want is 200.
func (s *testServer) login(t *testing.T, username, password string, want int) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("login as %s: expected %d, got %d", username, want, resp.StatusCode)
	}
	if want != http.StatusOK {
		return ""
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request, checks the status code and decodes the
// response into out when it is not nil.
func do(t *testing.T, method, url, token string, body any, want int, out any) {
	t.Helper()
	req, _ := authRequest(method, url, token, body)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, url, want, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, url, err)
		}
	}
}

// receive creates an asset type and takes n units into stock at Kirigiti.
func receive(t *testing.T, s *testServer, token, typeName string, n int, price string) (model.AssetType, []model.Asset) {
	t.Helper()
	var at model.AssetType
	do(t, "POST", s.URL+"/api/asset-types", token, map[string]string{"name": typeName}, http.StatusCreated, &at)

	var assets []model.Asset
	do(t, "POST", s.URL+"/api/assets", token, map[string]any{
		"asset_type_id":  at.ID,
		"model_number":   "M-100",
		"purchase_price": price,
		"quantity":       n,
	}, http.StatusCreated, &assets)
	return at, assets
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	server.login(t, "admin", "wrong", http.StatusUnauthorized)
	server.login(t, "nobody", "password", http.StatusUnauthorized)
	server.login(t, "", "", http.StatusUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	do(t, "GET", server.URL+"/api/assets", token, nil, http.StatusOK, nil)
	do(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)
	do(t, "GET", server.URL+"/api/assets", token, nil, http.StatusUnauthorized, nil)
}

func TestLogoutClearsCart(t *testing.T) {
	server, token := setupTestServer(t)
	_, assets := receive(t, server, token, "Laptop", 1, "300")
	do(t, "POST", fmt.Sprintf("%s/api/cart/items/%d", server.URL, assets[0].ID), token, nil, http.StatusOK, nil)

	claims, err := auth.ValidateToken(testJWTSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	do(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)

	ids, err := store.ListCartItems(context.Background(), server.db, claims.Session())
	if err != nil {
		t.Fatalf("ListCartItems: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty cart after logout, got %v", ids)
	}
}

func TestChangePassword(t *testing.T) {
	server, token := setupTestServer(t)
	url := server.URL + "/api/auth/password"

	do(t, "PUT", url, token, map[string]string{
		"current_password": "wrong", "new_password": "new password",
	}, http.StatusUnauthorized, nil)
	do(t, "PUT", url, token, map[string]string{
		"current_password": "password", "new_password": "short",
	}, http.StatusBadRequest, nil)
	do(t, "PUT", url, token, map[string]string{
		"current_password": "password", "new_password": "new password",
	}, http.StatusOK, nil)

	server.login(t, "admin", "password", http.StatusUnauthorized)
	server.login(t, "admin", "new password", http.StatusOK)
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, Options{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/assets")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, Options{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create a regular user.
	ctx := context.Background()
	hash, _ := auth.HashPassword("password1")
	user, err := store.CreateUser(ctx, database, "user1", hash, model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleUser)

	// Regular users cannot manage the catalog (manager+ required).
	do(t, "POST", server.URL+"/api/asset-types", userToken, map[string]string{"name": "Laptop"}, http.StatusForbidden, nil)

	// Regular users cannot access /api/users.
	do(t, "GET", server.URL+"/api/users", userToken, nil, http.StatusForbidden, nil)

	// Regular users cannot see reports.
	do(t, "GET", server.URL+"/api/reports/summary", userToken, nil, http.StatusForbidden, nil)

	// Regular users can browse stock.
	do(t, "GET", server.URL+"/api/assets", userToken, nil, http.StatusOK, nil)
}

func TestIntakeAndBulkSaleFlow(t *testing.T) {
	server, token := setupTestServer(t)

	at, assets := receive(t, server, token, "Laptop", 3, "400.00")
	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}
	if assets[0].SerialNumber != "LAP-000001" || assets[2].SerialNumber != "LAP-000003" {
		t.Errorf("unexpected serials %s..%s", assets[0].SerialNumber, assets[2].SerialNumber)
	}

	var rec model.SaleRecord
	do(t, "POST", server.URL+"/api/sales/bulk", token, map[string]any{
		"asset_type_id": at.ID,
		"location":      model.LocationKirigiti,
		"quantity":      2,
		"unit_price":    "600.00",
	}, http.StatusCreated, &rec)
	if rec.SaleType != model.SaleTypeBulk || !rec.TotalSalePrice.Equal(decimal.RequireFromString("1200")) {
		t.Errorf("unexpected bulk sale %+v", rec)
	}
	if rec.AssetCount != 2 {
		t.Errorf("expected 2 assets in sale, got %d", rec.AssetCount)
	}

	// Only one unit left.
	do(t, "POST", server.URL+"/api/sales/bulk", token, map[string]any{
		"asset_type_id": at.ID,
		"location":      model.LocationKirigiti,
		"quantity":      2,
		"unit_price":    "600.00",
	}, http.StatusConflict, nil)

	var page assetPage
	do(t, "GET", server.URL+"/api/assets?status=IN_STOCK", token, nil, http.StatusOK, &page)
	if page.Total != 1 || len(page.Assets) != 1 {
		t.Errorf("expected 1 asset in stock, got total %d", page.Total)
	}

	var detail struct {
		Sale   model.SaleRecord `json:"sale"`
		Assets []model.Asset    `json:"assets"`
	}
	do(t, "GET", fmt.Sprintf("%s/api/sales/%d", server.URL, rec.ID), token, nil, http.StatusOK, &detail)
	if len(detail.Assets) != 2 {
		t.Errorf("expected 2 assets on the sale, got %d", len(detail.Assets))
	}
}

func TestIntakeValidation(t *testing.T) {
	server, token := setupTestServer(t)

	var at model.AssetType
	do(t, "POST", server.URL+"/api/asset-types", token, map[string]string{"name": "Monitor"}, http.StatusCreated, &at)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"sub-cent price", map[string]any{"asset_type_id": at.ID, "model_number": "X", "purchase_price": "10.005"}, http.StatusBadRequest},
		{"zero price", map[string]any{"asset_type_id": at.ID, "model_number": "X", "purchase_price": "0"}, http.StatusBadRequest},
		{"missing model", map[string]any{"asset_type_id": at.ID, "purchase_price": "10"}, http.StatusBadRequest},
		{"bad warranty", map[string]any{"asset_type_id": at.ID, "model_number": "X", "purchase_price": "10", "warranty_end_date": "soon"}, http.StatusBadRequest},
		{"unknown type", map[string]any{"asset_type_id": at.ID + 99, "model_number": "X", "purchase_price": "10"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, "POST", server.URL+"/api/assets", token, tt.body, tt.want, nil)
		})
	}
}

func TestPendingThenConfirmFlow(t *testing.T) {
	server, token := setupTestServer(t)
	_, assets := receive(t, server, token, "Printer", 1, "500")
	url := fmt.Sprintf("%s/api/assets/%d", server.URL, assets[0].ID)

	// No price saved yet.
	do(t, "POST", url+"/confirm", token, nil, http.StatusConflict, nil)

	var pending model.Asset
	do(t, "POST", url+"/pending", token, map[string]string{"price": "750"}, http.StatusOK, &pending)
	if pending.Status != model.StatusPendingSale {
		t.Errorf("expected PENDING_SALE, got %s", pending.Status)
	}

	var rec model.SaleRecord
	do(t, "POST", url+"/confirm", token, nil, http.StatusCreated, &rec)
	if rec.SaleType != model.SaleTypeSingle || !rec.ProfitLoss().Equal(decimal.RequireFromString("250")) {
		t.Errorf("unexpected sale %+v", rec)
	}

	// Sold assets cannot be sold or scrapped again.
	do(t, "POST", url+"/confirm", token, nil, http.StatusConflict, nil)
	do(t, "POST", url+"/scrap", token, nil, http.StatusConflict, nil)

	var detail struct {
		Asset      model.Asset     `json:"asset"`
		ProfitLoss decimal.Decimal `json:"profit_loss"`
	}
	do(t, "GET", url, token, nil, http.StatusOK, &detail)
	if detail.Asset.Status != model.StatusSold || !detail.ProfitLoss.Equal(decimal.RequireFromString("250")) {
		t.Errorf("unexpected detail %+v", detail)
	}
}

func TestScrapFlow(t *testing.T) {
	server, token := setupTestServer(t)
	_, assets := receive(t, server, token, "Router", 1, "80")

	var rec model.SaleRecord
	do(t, "POST", fmt.Sprintf("%s/api/assets/%d/scrap", server.URL, assets[0].ID), token, nil, http.StatusCreated, &rec)
	if !rec.Scrapped || !rec.ProfitLoss().Equal(decimal.RequireFromString("-80")) {
		t.Errorf("unexpected scrap record %+v", rec)
	}
}

func TestCartCheckoutFlow(t *testing.T) {
	server, token := setupTestServer(t)
	_, laptops := receive(t, server, token, "Laptop", 1, "300")
	_, mice := receive(t, server, token, "Mouse", 1, "100")

	var added addToCartResponse
	for _, a := range []model.Asset{laptops[0], mice[0]} {
		do(t, "POST", fmt.Sprintf("%s/api/cart/items/%d", server.URL, a.ID), token, nil, http.StatusOK, &added)
		if !added.Added {
			t.Errorf("expected %s to be added", a.SerialNumber)
		}
	}
	do(t, "POST", fmt.Sprintf("%s/api/cart/items/%d", server.URL, mice[0].ID), token, nil, http.StatusOK, &added)
	if added.Added || !strings.Contains(added.Message, "already in the cart") {
		t.Errorf("unexpected response for duplicate add: %+v", added)
	}

	var c cartResponse
	do(t, "GET", server.URL+"/api/cart", token, nil, http.StatusOK, &c)
	if c.Count != 2 || !c.TotalCost.Equal(decimal.RequireFromString("400")) {
		t.Errorf("unexpected cart %+v", c)
	}

	var rec model.SaleRecord
	do(t, "POST", server.URL+"/api/cart/checkout", token, map[string]any{
		"prices": map[string]string{
			fmt.Sprint(laptops[0].ID): "400",
			fmt.Sprint(mice[0].ID):    "100",
		},
		"total_discount": "50",
	}, http.StatusCreated, &rec)
	if rec.SaleType != model.SaleTypeMixed || !rec.TotalSalePrice.Equal(decimal.RequireFromString("450")) {
		t.Errorf("unexpected mixed sale %+v", rec)
	}

	do(t, "GET", server.URL+"/api/cart", token, nil, http.StatusOK, &c)
	if c.Count != 0 {
		t.Errorf("expected empty cart after checkout, got %d", c.Count)
	}

	// Sold assets cannot go back into a cart.
	do(t, "POST", fmt.Sprintf("%s/api/cart/items/%d", server.URL, mice[0].ID), token, nil, http.StatusConflict, nil)

	// Nothing to check out.
	do(t, "POST", server.URL+"/api/cart/checkout", token, map[string]any{"total_price": "10"}, http.StatusBadRequest, nil)
}

func TestReportsAndMetrics(t *testing.T) {
	server, token := setupTestServer(t)
	at, _ := receive(t, server, token, "Laptop", 2, "400")

	do(t, "POST", server.URL+"/api/sales/bulk", token, map[string]any{
		"asset_type_id": at.ID,
		"location":      model.LocationKirigiti,
		"quantity":      2,
		"unit_price":    "450",
	}, http.StatusCreated, nil)

	var summary struct {
		Count  int             `json:"count"`
		Profit decimal.Decimal `json:"profit"`
	}
	do(t, "GET", server.URL+"/api/reports/summary", token, nil, http.StatusOK, &summary)
	if summary.Count != 2 || !summary.Profit.Equal(decimal.RequireFromString("100")) {
		t.Errorf("unexpected summary %+v", summary)
	}

	req, _ := authRequest("GET", server.URL+"/api/reports/sold.csv", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("csv request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != report.CSVContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "sold-assets-") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected header and 2 rows, got %d", len(records))
	}

	rec := httptest.NewRecorder()
	server.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()
	for _, want := range []string{
		"hms_assets_received_total 2",
		`hms_assets_sold_total{type="BULK"} 2`,
		`hms_sales_total{type="BULK"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
