package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"creditnet/internal/identity/service"
	"creditnet/internal/identity/store"
	id "creditnet/pkg/domain"
	adminmw "creditnet/pkg/platform/middleware/admin"
	"creditnet/pkg/platform/middleware/auth"
	"creditnet/pkg/secrets"
)

const (
	testSalt   = "handler-test-salt"
	adminToken = "secret-token"
	walletAddr = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	identities := store.NewInMemoryIdentityStore()
	wallets := store.NewInMemoryWalletStore()
	svc := service.New(identities, wallets, testSalt, 5)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	hash, err := secrets.Hash(adminToken)
	s.Require().NoError(err)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		// Stands in for the bearer middleware: the suite authenticates every
		// request as the identity named in the X-Test-Identity header.
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := req.Context()
				if raw := req.Header.Get("X-Test-Identity"); raw != "" {
					identityID, err := id.ParseIdentityID(raw)
					s.Require().NoError(err)
					ctx = auth.WithIdentityID(ctx, identityID)
				}
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterAuthenticated(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(hash, logger))
		h.RegisterAdmin(r)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) register(email string) IdentityResponse {
	rec := s.do(http.MethodPost, "/identities",
		`{"email":"`+email+`","first_name":"Ada","last_name":"Lovelace"}`, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp IdentityResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestRegisterAndGetIdentity() {
	created := s.register("ada@example.com")
	s.Equal("ada@example.com", created.Email)
	s.NotEmpty(created.ID)

	rec := s.do(http.MethodGet, "/identities/"+created.ID, "", nil)
	s.Equal(http.StatusOK, rec.Code)

	var fetched IdentityResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &fetched))
	s.Equal(created.ID, fetched.ID)
	s.True(fetched.Active)
}

func (s *HandlerSuite) TestRegisterDuplicateEmailConflicts() {
	s.register("dup@example.com")
	rec := s.do(http.MethodPost, "/identities",
		`{"email":"dup@example.com","first_name":"A","last_name":"B"}`, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestRegisterRejectsMalformedEmail() {
	rec := s.do(http.MethodPost, "/identities",
		`{"email":"not-an-email","first_name":"A","last_name":"B"}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetIdentityRejectsBadID() {
	rec := s.do(http.MethodGet, "/identities/not-a-uuid", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetUnknownIdentityNotFound() {
	unknown := id.DeriveIdentityID(testSalt, "nobody@example.com")
	rec := s.do(http.MethodGet, "/identities/"+unknown.String(), "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestLinkAndListWallets() {
	created := s.register("wallets@example.com")

	rec := s.do(http.MethodPost, "/wallets",
		`{"address":"`+walletAddr+`","proof_verified":true}`,
		map[string]string{"X-Test-Identity": created.ID})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/identities/"+created.ID+"/wallets", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var list WalletListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Len(list.Wallets, 1)
	s.Equal(created.ID, list.Wallets[0].IdentityID)
}

func (s *HandlerSuite) TestLinkWalletWithoutProofRejected() {
	created := s.register("noproof@example.com")
	rec := s.do(http.MethodPost, "/wallets",
		`{"address":"`+walletAddr+`","proof_verified":false}`,
		map[string]string{"X-Test-Identity": created.ID})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUnlinkWalletNoContent() {
	created := s.register("unlink@example.com")
	headers := map[string]string{"X-Test-Identity": created.ID}

	rec := s.do(http.MethodPost, "/wallets",
		`{"address":"`+walletAddr+`","proof_verified":true}`, headers)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodDelete, "/wallets/"+walletAddr, "", headers)
	s.Equal(http.StatusNoContent, rec.Code)
}

// Verifies middleware wiring in isolation: admin routes reject requests
// without a valid token before reaching the handler.
func (s *HandlerSuite) TestAdminTokenRequired() {
	created := s.register("admin@example.com")

	rec := s.do(http.MethodPost, "/admin/identities/"+created.ID+"/deactivate", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/admin/identities/"+created.ID+"/deactivate", "",
		map[string]string{"X-Admin-Token": adminToken})
	s.Equal(http.StatusOK, rec.Code)

	var resp IdentityResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.False(resp.Active)
}

func (s *HandlerSuite) TestReactivateRestoresIdentity() {
	created := s.register("lazarus@example.com")
	headers := map[string]string{"X-Admin-Token": adminToken}

	rec := s.do(http.MethodPost, "/admin/identities/"+created.ID+"/deactivate", "", headers)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/admin/identities/"+created.ID+"/reactivate", "", headers)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp IdentityResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Active)
}
