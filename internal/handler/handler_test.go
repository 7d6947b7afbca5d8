package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrivisor/agrivisor/internal/auth"
	"github.com/agrivisor/agrivisor/internal/handler"
	"github.com/agrivisor/agrivisor/internal/middleware"
	"github.com/agrivisor/agrivisor/internal/repository"
	"github.com/agrivisor/agrivisor/internal/service/finance"
	"github.com/agrivisor/agrivisor/internal/service/market"
	"github.com/agrivisor/agrivisor/internal/service/recommend"
	"github.com/agrivisor/agrivisor/internal/service/weather"
	"github.com/agrivisor/agrivisor/pkg/cache"
	"github.com/agrivisor/agrivisor/pkg/logger"
)

type fakeFarmerStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*repository.Farmer
	byPhone map[string]*repository.Farmer
}

func newFakeFarmerStore() *fakeFarmerStore {
	return &fakeFarmerStore{
		byID:    make(map[uuid.UUID]*repository.Farmer),
		byPhone: make(map[string]*repository.Farmer),
	}
}

func (s *fakeFarmerStore) Create(_ context.Context, f *repository.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPhone[f.Phone]; exists {
		return repository.ErrDuplicatePhone
	}
	cp := *f
	s.byID[f.ID] = &cp
	s.byPhone[f.Phone] = &cp
	return nil
}

func (s *fakeFarmerStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFarmerStore) GetByPhone(_ context.Context, phone string) (*repository.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byPhone[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFarmerStore) UpdateProfile(_ context.Context, f *repository.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name, stored.District, stored.State = f.Name, f.District, f.State
	return nil
}

func (s *fakeFarmerStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

type fakeFarmStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*repository.Farm
}

func newFakeFarmStore() *fakeFarmStore {
	return &fakeFarmStore{byID: make(map[uuid.UUID]*repository.Farm)}
}

func (s *fakeFarmStore) Create(_ context.Context, f *repository.Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.byID[f.ID] = &cp
	return nil
}

func (s *fakeFarmStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Farm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFarmStore) ListByFarmer(_ context.Context, farmerID uuid.UUID) ([]repository.Farm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Farm
	for _, f := range s.byID {
		if f.FarmerID == farmerID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFarmStore) Update(_ context.Context, f *repository.Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[f.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *f
	s.byID[f.ID] = &cp
	return nil
}

func (s *fakeFarmStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeFarmStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// offlineClient always fails, forcing advisory services onto their fallbacks.
func offlineClient() *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("offline")
		}),
	}
}

// testApp wires handlers onto a chi router the way the server does.
type testApp struct {
	router  *chi.Mux
	tokens  *auth.TokenService
	farmers *fakeFarmerStore
	farms   *fakeFarmStore
	cache   *cache.Cache[any]
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	log := logger.NewNope()
	c := cache.New[any](cache.WithSweepInterval(0))
	t.Cleanup(func() { _ = c.Close() })

	farmers := newFakeFarmerStore()
	farms := newFakeFarmStore()
	tokens := auth.NewTokenService("test-secret", time.Hour)

	weatherSvc := weather.NewService(c, offlineClient(), log)
	marketSvc := market.NewService(c, offlineClient(), "", log)
	financeSvc := finance.NewService(c)
	recommendSvc := recommend.NewService(nil, nil, weatherSvc, log)

	authH := handler.NewAuth(farmers, tokens, log)
	farmerH := handler.NewFarmer(farmers, log)
	farmH := handler.NewFarm(farms, log)
	advisoryH := handler.NewAdvisory(weatherSvc, marketSvc, financeSvc, recommendSvc, farmers, farms, log)
	adminH := handler.NewAdmin(c, farmers, farms, log)

	r := chi.NewRouter()
	r.Post("/auth/register", authH.Register)
	r.Post("/auth/login", authH.Login)
	r.Get("/weather/{district}", advisoryH.Weather)
	r.Get("/market/{district}/{commodity}", advisoryH.MarketPrices)
	r.Get("/finance/schemes", advisoryH.FinanceSchemes)
	r.Post("/finance/emi", advisoryH.FinanceEMI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		r.Get("/me", farmerH.Profile)
		r.Put("/me", farmerH.UpdateProfile)
		r.Post("/farms", farmH.Create)
		r.Get("/farms", farmH.List)
		r.Get("/farms/{farmID}", farmH.Get)
		r.Put("/farms/{farmID}", farmH.Update)
		r.Delete("/farms/{farmID}", farmH.Delete)
		r.Post("/farms/{farmID}/recommendation", advisoryH.Recommend)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/admin/stats", adminH.Stats)
			r.Post("/admin/cache/invalidate", adminH.InvalidateCache)
		})
	})

	return &testApp{router: r, tokens: tokens, farmers: farmers, farms: farms, cache: c}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account directly and returns its token.
func (a *testApp) register(t *testing.T, role, district string) (uuid.UUID, string) {
	t.Helper()

	farmerID := uuid.New()
	hash, err := auth.HashPassword("sufficiently-long")
	require.NoError(t, err)
	require.NoError(t, a.farmers.Create(context.Background(), &repository.Farmer{
		ID:           farmerID,
		Name:         "Test Farmer",
		Phone:        "9" + farmerID.String()[:9],
		PasswordHash: hash,
		District:     district,
		Role:         role,
	}))

	token, err := a.tokens.Issue(farmerID, role)
	require.NoError(t, err)
	return farmerID, token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates an account and returns a token", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		rec := app.do(t, http.MethodPost, "/auth/register", "", map[string]any{
			"name":     "Sita Devi",
			"phone":    "9876543210",
			"password": "strong-enough",
			"district": "Ranchi",
			"state":    "Jharkhand",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decodeBody[struct {
			Token  string             `json:"token"`
			Farmer *repository.Farmer `json:"farmer"`
		}](t, rec)

		require.NotEmpty(t, resp.Token)
		claims, err := app.tokens.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleFarmer, claims.Role)
		assert.NotEmpty(t, resp.Farmer.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate phone conflicts", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		body := map[string]any{
			"name": "A", "phone": "9876543210", "password": "strong-enough",
		}
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/auth/register", "", body).Code)
		assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, "/auth/register", "", body).Code)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		cases := map[string]map[string]any{
			"missing name":   {"phone": "9876543210", "password": "strong-enough"},
			"short password": {"name": "A", "phone": "9876543210", "password": "short"},
			"bad phone":      {"name": "A", "phone": "12345", "password": "strong-enough"},
		}
		for name, body := range cases {
			rec := app.do(t, http.MethodPost, "/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
	})
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Sita Devi", "phone": "9876543210", "password": "strong-enough",
	}).Code)

	t.Run("valid credentials", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/auth/login", "", map[string]any{
			"phone": "9876543210", "password": "strong-enough",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "token")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/auth/login", "", map[string]any{
			"phone": "9876543210", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown phone", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/auth/login", "", map[string]any{
			"phone": "9000000000", "password": "strong-enough",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestFarmer_Profile(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	farmerID, token := app.register(t, auth.RoleFarmer, "Ranchi")

	t.Run("requires auth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/me", "", nil).Code)
	})

	t.Run("returns own profile", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		farmer := decodeBody[repository.Farmer](t, rec)
		assert.Equal(t, farmerID, farmer.ID)
	})

	t.Run("updates district, keeps untouched fields", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/me", token, map[string]any{"district": "Bokaro"})
		require.Equal(t, http.StatusOK, rec.Code)
		farmer := decodeBody[repository.Farmer](t, rec)
		assert.Equal(t, "Bokaro", farmer.District)
		assert.Equal(t, "Test Farmer", farmer.Name)
	})
}

func TestFarm_CRUD(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	_, token := app.register(t, auth.RoleFarmer, "Ranchi")

	create := map[string]any{
		"name": "Kanke plot", "area_hectares": 1.5, "soil_type": "red loam",
		"irrigation": "well", "nitrogen": 78, "phosphorus": 42, "potassium": 40,
		"soil_ph": 6.3, "notes": "<script>alert(1)</script>near the river",
	}

	rec := app.do(t, http.MethodPost, "/farms", token, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	farm := decodeBody[repository.Farm](t, rec)
	assert.NotContains(t, farm.Notes, "<script>")
	assert.Contains(t, farm.Notes, "near the river")

	t.Run("list", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/farms", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		farms := decodeBody[[]repository.Farm](t, rec)
		require.Len(t, farms, 1)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/farms/"+farm.ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other farmer cannot see it", func(t *testing.T) {
		_, otherToken := app.register(t, auth.RoleFarmer, "Bokaro")
		rec := app.do(t, http.MethodGet, "/farms/"+farm.ID.String(), otherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		update := create
		update["nitrogen"] = 55.0
		rec := app.do(t, http.MethodPut, "/farms/"+farm.ID.String(), token, update)
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decodeBody[repository.Farm](t, rec)
		assert.Equal(t, 55.0, updated.Nitrogen)
	})

	t.Run("rejects invalid soil values", func(t *testing.T) {
		bad := map[string]any{"name": "X", "area_hectares": 1.0, "soil_ph": 22.0}
		rec := app.do(t, http.MethodPost, "/farms", token, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, "/farms/"+farm.ID.String(), token, nil).Code)
		assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/farms/"+farm.ID.String(), token, nil).Code)
	})
}

func TestAdvisory_Weather(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	t.Run("covered district serves a report", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/weather/Ranchi", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		report := decodeBody[weather.Report](t, rec)
		assert.Equal(t, "Ranchi", report.District)
		assert.Equal(t, weather.SourceFallback, report.Source)
	})

	t.Run("unknown district", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/weather/Atlantis", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdvisory_Market(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/market/Ranchi/wheat", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[market.PriceReport](t, rec)
	assert.Equal(t, "wheat", report.Commodity)
	assert.Positive(t, report.ModalPrice)
}

func TestAdvisory_Finance(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	t.Run("schemes", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/finance/schemes", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		schemes := decodeBody[[]finance.Scheme](t, rec)
		assert.NotEmpty(t, schemes)
	})

	t.Run("emi quote", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/finance/emi", "", map[string]any{
			"principal_inr": 100000, "annual_rate_pct": 12, "tenure_months": 12,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		quote := decodeBody[finance.EMIQuote](t, rec)
		assert.InDelta(t, 8884.88, quote.MonthlyEMIINR, 0.01)
	})

	t.Run("invalid principal", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/finance/emi", "", map[string]any{
			"principal_inr": -5, "annual_rate_pct": 12, "tenure_months": 12,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdvisory_Recommend(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	_, token := app.register(t, auth.RoleFarmer, "Ranchi")

	rec := app.do(t, http.MethodPost, "/farms", token, map[string]any{
		"name": "Kanke plot", "area_hectares": 1.5,
		"nitrogen": 78, "phosphorus": 42, "potassium": 40, "soil_ph": 6.3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	farm := decodeBody[repository.Farm](t, rec)

	t.Run("ranks crops from the farmer's district", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/farms/"+farm.ID.String()+"/recommendation", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := decodeBody[recommend.Recommendation](t, rec)
		assert.Equal(t, recommend.SourceHeuristic, result.Source)
		assert.NotEmpty(t, result.Scores)
	})

	t.Run("uncovered district override", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/farms/"+farm.ID.String()+"/recommendation?district=Atlantis", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAdmin(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	_, farmerToken := app.register(t, auth.RoleFarmer, "Ranchi")
	_, adminToken := app.register(t, auth.RoleAdmin, "Ranchi")

	// Populate the cache through the public surface.
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/weather/Ranchi", "", nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/market/Ranchi/wheat", "", nil).Code)

	t.Run("farmer is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/admin/stats", farmerToken, nil).Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/admin/stats", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decodeBody[struct {
			Farmers int64       `json:"farmers"`
			Farms   int64       `json:"farms"`
			Cache   cache.Stats `json:"cache"`
		}](t, rec)
		assert.Equal(t, int64(2), stats.Farmers)
		assert.GreaterOrEqual(t, stats.Cache.Total, 2)
	})

	t.Run("pattern invalidation leaves other entries", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/admin/cache/invalidate?pattern=market:", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"invalidated":1`)
	})

	t.Run("full invalidation", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/admin/cache/invalidate", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, app.cache.Stats().Total)
	})
}
