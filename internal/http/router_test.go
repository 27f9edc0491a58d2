package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	authhandler "cadastro/internal/auth/handler"
	authservice "cadastro/internal/auth/service"
	"cadastro/internal/auth/store/revocation"
	"cadastro/internal/auth/store/user"
	"cadastro/internal/company/cache"
	companyhandler "cadastro/internal/company/handler"
	"cadastro/internal/company/registry"
	companyservice "cadastro/internal/company/service"
	"cadastro/internal/company/store"
	jwttoken "cadastro/internal/jwt_token"
	"cadastro/internal/platform/health"
	"cadastro/internal/platform/metrics"
	"cadastro/internal/platform/middleware"
	"cadastro/pkg/testutil"
)

const upstreamDoc = `{"cnpj":"11222333000181","razao_social":"ACME LTDA","nome_fantasia":"Acme","uf":"SP","capital_social":"1000,00"}`

type RouterSuite struct {
	suite.Suite
	upstream      *httptest.Server
	upstreamCalls atomic.Int32
	router        http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.upstreamCalls.Store(0)
	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.upstreamCalls.Add(1)
		if r.URL.Path != "/11222333000181" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamDoc)
	}))
	s.T().Cleanup(s.upstream.Close)

	trl := revocation.NewInMemoryTRL()
	tokens := jwttoken.NewJWTService("router-test-key", "cadastro", time.Hour)
	auth := authservice.New(user.New(), trl, tokens,
		authservice.WithLogger(logger),
		authservice.WithHashCost(bcrypt.MinCost),
	)
	_, err := auth.CreateUser(s.T().Context(), "teste@example.com", "senha123")
	s.Require().NoError(err)

	companies := companyservice.New(
		store.NewInMemory(),
		cache.NewMemory(companyservice.DefaultCacheTTL),
		registry.New(registry.Config{BaseURL: s.upstream.URL}),
		companyservice.WithLogger(logger),
	)

	s.router = NewRouter(Deps{
		Logger:       logger,
		Auth:         authhandler.New(auth, logger),
		Companies:    companyhandler.New(companies, logger),
		Health:       health.New(),
		Validator:    jwttoken.NewJWTServiceAdapter(tokens),
		Revocations:  trl,
		APILimiter:   middleware.NewRateLimiter("api", 100, 15*time.Minute, logger),
		LoginLimiter: middleware.NewRateLimiter("login", 5, 15*time.Minute, logger),
		HTTPMetrics:  metrics.New(prometheus.NewRegistry()),
		Gatherer:     prometheus.NewRegistry(),
		FrontendURL:  "http://localhost:5173",
	})
}

func (s *RouterSuite) login(password string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/login",
		map[string]string{"email": "teste@example.com", "password": password})
	return testutil.DoRequest(s.router, req)
}

func (s *RouterSuite) token() string {
	rr := s.login("senha123")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[struct {
		Token string `json:"token"`
	}](s.T(), rr).Token
}

func (s *RouterSuite) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req = testutil.WithBearer(req, token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *RouterSuite) TestHealth() {
	rr := s.get("/api/health", "")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"status":"ok"}`, rr.Body.String())
	s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	s.Equal("http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestMetricsEndpoint() {
	rr := s.get("/metrics", "")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *RouterSuite) TestCompaniesRequireAuth() {
	rr := s.get("/api/companies", "")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestLookupIsCachedAfterRegistryHit() {
	token := s.token()

	first := s.get("/api/companies/11.222.333%2F0001-81", token)
	testutil.AssertStatus(s.T(), first, http.StatusOK)
	s.JSONEq(upstreamDoc, first.Body.String())
	s.Equal("registry", first.Header().Get("X-Cache-Source"))

	second := s.get("/api/companies/11222333000181", token)
	testutil.AssertStatus(s.T(), second, http.StatusOK)
	s.JSONEq(upstreamDoc, second.Body.String())
	s.Equal("cache", second.Header().Get("X-Cache-Source"))
	s.Equal(int32(1), s.upstreamCalls.Load())

	list := s.get("/api/companies", token)
	testutil.AssertStatus(s.T(), list, http.StatusOK)
	s.Contains(list.Body.String(), `"total":1`)
}

func (s *RouterSuite) TestUnknownCompanyIsNotFound() {
	rr := s.get("/api/companies/33000167000101", s.token())
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *RouterSuite) TestInvalidTaxIDIsBadRequest() {
	rr := s.get("/api/companies/11222333000182", s.token())
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	s.Equal(int32(0), s.upstreamCalls.Load())
}

func (s *RouterSuite) TestLogoutRevokesToken() {
	token := s.token()
	testutil.AssertStatus(s.T(), s.get("/api/companies", token), http.StatusOK)

	req := testutil.WithBearer(httptest.NewRequest(http.MethodPost, "/api/logout", nil), token)
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)

	rr := s.get("/api/companies", token)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestLoginLimiterCountsFailuresOnly() {
	for range 10 {
		testutil.AssertStatus(s.T(), s.login("senha123"), http.StatusOK)
	}
	for range 5 {
		testutil.AssertStatus(s.T(), s.login("wrong"), http.StatusUnauthorized)
	}
	testutil.AssertStatus(s.T(), s.login("senha123"), http.StatusTooManyRequests)
}
