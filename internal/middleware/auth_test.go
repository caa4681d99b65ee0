package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budgetledger/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

// AuthTestSuite defines the test suite for the bearer token middleware
type AuthTestSuite struct {
	suite.Suite
	echo    *echo.Echo
	secret  []byte
	ownerID uuid.UUID
}

// SetupTest runs before each test
func (s *AuthTestSuite) SetupTest() {
	s.echo = echo.New()
	s.secret = []byte("test-secret")
	s.ownerID = uuid.New()
}

// TestAuthTestSuite runs the test suite
func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func (s *AuthTestSuite) signToken(secret []byte, subject string, expiresAt time.Time) string {
	claims := &OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	s.Require().NoError(err)
	return token
}

func (s *AuthTestSuite) invoke(authHeader string) (*httptest.ResponseRecorder, bool) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	reachedHandler := false
	handler := RequireAuth(s.secret)(func(c echo.Context) error {
		reachedHandler = true
		s.Equal(s.ownerID, c.Get("owner_id"))
		return c.NoContent(http.StatusOK)
	})

	s.NoError(handler(c))
	return rec, reachedHandler
}

func (s *AuthTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var response errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	return response.Error.Code
}

func (s *AuthTestSuite) TestRequireAuth_ValidToken() {
	token := s.signToken(s.secret, s.ownerID.String(), time.Now().Add(time.Hour))

	rec, reached := s.invoke("Bearer " + token)
	s.True(reached)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthTestSuite) TestRequireAuth_MissingHeader() {
	rec, reached := s.invoke("")
	s.False(reached)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_001", s.errorCode(rec))
}

func (s *AuthTestSuite) TestRequireAuth_MalformedHeader() {
	testCases := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token-without-scheme"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec, reached := s.invoke(tc.header)
			s.False(reached)
			s.Equal(http.StatusUnauthorized, rec.Code)
			s.Equal("AUTH_003", s.errorCode(rec))
		})
	}
}

func (s *AuthTestSuite) TestRequireAuth_ExpiredToken() {
	token := s.signToken(s.secret, s.ownerID.String(), time.Now().Add(-time.Hour))

	rec, reached := s.invoke("Bearer " + token)
	s.False(reached)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_002", s.errorCode(rec))
}

func (s *AuthTestSuite) TestRequireAuth_WrongSecret() {
	token := s.signToken([]byte("some-other-secret"), s.ownerID.String(), time.Now().Add(time.Hour))

	rec, reached := s.invoke("Bearer " + token)
	s.False(reached)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_003", s.errorCode(rec))
}

func (s *AuthTestSuite) TestRequireAuth_SubjectNotAUUID() {
	token := s.signToken(s.secret, "owner-42", time.Now().Add(time.Hour))

	rec, reached := s.invoke("Bearer " + token)
	s.False(reached)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_003", s.errorCode(rec))
}

func (s *AuthTestSuite) TestRequireAuth_GarbageToken() {
	rec, reached := s.invoke("Bearer not.a.jwt")
	s.False(reached)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_003", s.errorCode(rec))
}
