package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	identityservice "creditnet/internal/identity/service"
	identitystore "creditnet/internal/identity/store"
	"creditnet/internal/referral/service"
	"creditnet/internal/referral/store"
	id "creditnet/pkg/domain"
	"creditnet/pkg/platform/middleware/auth"
	"creditnet/pkg/platform/txn"
)

const (
	testSalt   = "referral-handler-test-salt"
	signingKey = "test-signing-key"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	identitySvc *identityservice.Service
}

func (s *HandlerSuite) SetupTest() {
	identities := identitystore.NewInMemoryIdentityStore()
	invitations := store.NewInMemoryInvitationStore()
	edges := store.NewInMemoryEdgeStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s.identitySvc = identityservice.New(identities, identitystore.NewInMemoryWalletStore(), testSalt, 5)
	svc := service.New(invitations, edges, identities, testSalt, 7*24*time.Hour, txn.NewInMemory())

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer([]byte(signingKey), logger))
		h.RegisterAuthenticated(r)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) register(email string) id.IdentityID {
	identity, err := s.identitySvc.RegisterIdentity(context.Background(), email, "Test", "User")
	s.Require().NoError(err)
	return identity.ID
}

// bearerFor mints the HS256 token the credential collaborator would issue.
func (s *HandlerSuite) bearerFor(identityID id.IdentityID) string {
	claims := &auth.Claims{
		IdentityID: identityID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	s.Require().NoError(err)
	return "Bearer " + signed
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

func (s *HandlerSuite) invite(inviterID id.IdentityID, inviteeEmail string) InvitationResponse {
	rec := s.do(http.MethodPost, "/invitations",
		`{"invitee_email":"`+inviteeEmail+`","message":"join up"}`,
		map[string]string{"Authorization": s.bearerFor(inviterID)})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp InvitationResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestCreateInvitationRequiresBearer() {
	rec := s.do(http.MethodPost, "/invitations",
		`{"invitee_email":"friend@example.com"}`, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestCreateInvitationRejectsForgedToken() {
	inviterID := s.register("forger@example.com")
	claims := &auth.Claims{IdentityID: inviterID.String()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-key"))
	s.Require().NoError(err)

	rec := s.do(http.MethodPost, "/invitations",
		`{"invitee_email":"friend@example.com"}`,
		map[string]string{"Authorization": "Bearer " + forged})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestInvitationLifecycleOverHTTP() {
	inviterID := s.register("alice@example.com")
	created := s.invite(inviterID, "bob@example.com")
	s.Equal("pending", created.Status)
	s.Equal("bob@example.com", created.InviteeEmail)

	rec := s.do(http.MethodGet, "/invitations/"+created.Token, "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/invitations/"+created.Token+"/accept", `{}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var accepted AcceptInvitationResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &accepted))
	s.Equal(inviterID.String(), accepted.InviterID)
	s.Equal("alice@example.com", accepted.InviterEmail)

	// The state machine is one-shot: a second resolution conflicts.
	rec = s.do(http.MethodPost, "/invitations/"+created.Token+"/accept", `{}`, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestAcceptEmailMismatchForbidden() {
	inviterID := s.register("carol@example.com")
	created := s.invite(inviterID, "dave@example.com")

	rec := s.do(http.MethodPost, "/invitations/"+created.Token+"/accept",
		`{"email":"impostor@example.com"}`, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// The mismatch leaves the invitation pending and acceptable.
	rec = s.do(http.MethodPost, "/invitations/"+created.Token+"/accept",
		`{"email":"dave@example.com"}`, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestRejectInvitationNoContent() {
	inviterID := s.register("erin@example.com")
	created := s.invite(inviterID, "frank@example.com")

	rec := s.do(http.MethodPost, "/invitations/"+created.Token+"/reject", `{}`, nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestGetUnknownInvitationNotFound() {
	rec := s.do(http.MethodGet, "/invitations/no-such-token", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListInvitationsRequiresEmail() {
	rec := s.do(http.MethodGet, "/invitations", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListInvitationsBothViews() {
	inviterID := s.register("grace@example.com")
	s.invite(inviterID, "heidi@example.com")

	rec := s.do(http.MethodGet, "/invitations?email=grace@example.com", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var view InvitationListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	s.Len(view.Sent, 1)
	s.Empty(view.Received)

	rec = s.do(http.MethodGet, "/invitations?email=heidi@example.com", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	s.Empty(view.Sent)
	s.Len(view.Received, 1)
}

func (s *HandlerSuite) TestReferralPathRootFirst() {
	inviterID := s.register("root@example.com")
	created := s.invite(inviterID, "leaf@example.com")

	rec := s.do(http.MethodPost, "/invitations/"+created.Token+"/accept", `{}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	leafID := s.register("leaf@example.com")

	rec = s.do(http.MethodGet, "/identities/"+leafID.String()+"/referral-path", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var path ReferralPathResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &path))
	s.Equal([]string{inviterID.String(), leafID.String()}, path.Path)
}
