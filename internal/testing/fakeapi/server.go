// Package fakeapi runs an in-process stand-in for the ledger backend. It
// mirrors the real service closely enough for client tests: multipart
// login, JWT bearer tokens, 307 trailing slash redirects, datetimes without
// a zone offset and FastAPI style {"detail": ...} errors.
package fakeapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ledgerbook/client/internal/models"
)

const (
	DetailIncorrectLogin   = "Incorrect username or password"
	DetailBadCredentials   = "Could not validate credentials"
	DetailUsernameTaken    = "Username already registered"
	DetailEmailTaken       = "Email already registered"
	DetailNotFoundTemplate = "%s not found"

	contextUserKey = "fakeapi.user"
)

type userRecord struct {
	user     models.User
	password string
}

type Server struct {
	*httptest.Server

	// FixedToken, when set, is issued by the token endpoint instead of a JWT.
	FixedToken string
	// LoginFailureDetail overrides the detail sent for a failed login.
	LoginFailureDetail string
	// VerifyUnavailable makes /auth/verify/ answer 404, as backends
	// without the endpoint do.
	VerifyUnavailable bool

	mu           sync.Mutex
	fixedOwner   string
	secret       []byte
	nextID       int
	users        map[string]*userRecord
	revoked      map[string]bool
	accounts     map[int]models.Account
	projects     map[int]models.Project
	transactions map[int]models.Transaction
	hits         map[string]int
	authHeaders  []string
}

func New(t testing.TB) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:       []byte(uuid.NewString()),
		nextID:       1,
		users:        make(map[string]*userRecord),
		revoked:      make(map[string]bool),
		accounts:     make(map[int]models.Account),
		projects:     make(map[int]models.Project),
		transactions: make(map[int]models.Transaction),
		hits:         make(map[string]int),
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(s.record())

	auth := router.Group("/auth")
	auth.POST("/token/", s.handleToken)
	auth.POST("/register/", s.handleRegister)
	auth.GET("/verify/", s.verifyAvailable(), s.authenticate(), s.handleVerify)

	// Collections live at the slash form, items without it. Either way the
	// other spelling is answered with a 307 before authentication runs.
	router.Any("/users/me", redirectTo("/users/me/"))
	for _, collection := range []string{"/accounts", "/projects", "/transactions"} {
		router.Any(collection, redirectTo(collection+"/"))
		router.Any(collection+"/:id/", redirectWithoutSlash())
	}

	protected := router.Group("/", s.authenticate())
	protected.GET("/users/me/", s.handleMe)

	protected.GET("/accounts/", s.handleListAccounts)
	protected.POST("/accounts/", s.handleCreateAccount)
	protected.GET("/accounts/:id", s.handleGetAccount)
	protected.PUT("/accounts/:id", s.handleUpdateAccount)
	protected.DELETE("/accounts/:id", s.handleDeleteAccount)

	protected.GET("/projects/", s.handleListProjects)
	protected.POST("/projects/", s.handleCreateProject)
	protected.GET("/projects/:id", s.handleGetProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)

	protected.GET("/transactions/", s.handleListTransactions)
	protected.POST("/transactions/", s.handleCreateTransaction)
	protected.GET("/transactions/:id", s.handleGetTransaction)
	protected.PUT("/transactions/:id", s.handleUpdateTransaction)
	protected.DELETE("/transactions/:id", s.handleDeleteTransaction)

	return router
}

func redirectTo(location string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := location
		if len(c.Request.URL.RawQuery) > 0 {
			target = target + "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusTemporaryRedirect, target)
	}
}

func redirectWithoutSlash() gin.HandlerFunc {
	return func(c *gin.Context) {
		target := strings.TrimSuffix(c.Request.URL.Path, "/")
		if len(c.Request.URL.RawQuery) > 0 {
			target = target + "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusTemporaryRedirect, target)
	}
}

func detail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.hits[c.Request.Method+" "+c.Request.URL.Path]++
		s.authHeaders = append(s.authHeaders, c.GetHeader("Authorization"))
		s.mu.Unlock()
		c.Next()
	}
}

// Hits returns how many requests reached method and path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// AuthorizationHeaders returns the Authorization header of every request
// in arrival order.
func (s *Server) AuthorizationHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
	s.authHeaders = nil
}

func (s *Server) AddUser(username, password, email string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, email, "CNY")
}

func (s *Server) addUserLocked(username, password, email, currency string) models.User {
	user := models.User{
		ID:              s.nextID,
		Username:        username,
		Email:           email,
		DefaultCurrency: currency,
		CreatedAt:       models.NewTimestamp(time.Now()),
	}
	s.nextID++
	s.users[username] = &userRecord{user: user, password: password}
	return user
}

// IssueToken signs a token for an existing user as the token endpoint would.
func (s *Server) IssueToken(username string) string {
	return s.signToken(username, 30*time.Minute)
}

// IssueExpiredToken signs a token that expired a minute ago.
func (s *Server) IssueExpiredToken(username string) string {
	return s.signToken(username, -time.Minute)
}

func (s *Server) signToken(username string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: failed to sign token: %v", err))
	}
	return signed
}

func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(token) == 0 {
			c.Header("WWW-Authenticate", "Bearer")
			detail(c, http.StatusUnauthorized, DetailBadCredentials)
			return
		}

		user, ok := s.userForToken(token)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			detail(c, http.StatusUnauthorized, DetailBadCredentials)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (s *Server) userForToken(token string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revoked[token] {
		return models.User{}, false
	}

	if len(s.FixedToken) > 0 && token == s.FixedToken {
		record, ok := s.users[s.fixedOwner]
		if !ok {
			return models.User{}, false
		}
		return record.user, true
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return models.User{}, false
	}

	record, ok := s.users[claims.Subject]
	if !ok {
		return models.User{}, false
	}
	return record.user, true
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet(contextUserKey).(models.User)
}

func (s *Server) handleToken(c *gin.Context) {
	username := c.PostForm(models.FormFieldUsername)
	password := c.PostForm(models.FormFieldPassword)

	s.mu.Lock()
	record, ok := s.users[username]
	failure := s.LoginFailureDetail
	fixed := s.FixedToken
	valid := ok && record.password == password
	if valid && len(fixed) > 0 {
		s.fixedOwner = username
	}
	s.mu.Unlock()

	if !valid {
		if len(failure) == 0 {
			failure = DetailIncorrectLogin
		}
		c.Header("WWW-Authenticate", "Bearer")
		detail(c, http.StatusUnauthorized, failure)
		return
	}

	token := fixed
	if len(token) == 0 {
		token = s.IssueToken(username)
	}

	c.JSON(http.StatusOK, models.Token{AccessToken: token, TokenType: models.TokenTypeBearer})
}

func (s *Server) handleRegister(c *gin.Context) {
	var registration models.Registration
	if err := c.ShouldBindJSON(&registration); err != nil ||
		len(registration.Username) == 0 || len(registration.Email) == 0 || len(registration.Password) == 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []string{"body"}, "msg": "field required", "type": "value_error.missing"},
		}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[registration.Username]; exists {
		detail(c, http.StatusBadRequest, DetailUsernameTaken)
		return
	}
	for _, record := range s.users {
		if strings.EqualFold(record.user.Email, registration.Email) {
			detail(c, http.StatusBadRequest, DetailEmailTaken)
			return
		}
	}

	currency := registration.DefaultCurrency
	if len(currency) == 0 {
		currency = "CNY"
	}

	c.JSON(http.StatusOK, s.addUserLocked(registration.Username, registration.Password, registration.Email, currency))
}

func (s *Server) verifyAvailable() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		unavailable := s.VerifyUnavailable
		s.mu.Unlock()

		if unavailable {
			detail(c, http.StatusNotFound, "Not Found")
			return
		}
		c.Next()
	}
}

func (s *Server) handleVerify(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, models.VerifyResponse{Valid: true, Username: user.Username, UserID: user.ID})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

// page applies the skip/limit query the backend supports to sorted ids.
func page(c *gin.Context, ids []int) []int {
	sort.Ints(ids)

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	if skip >= len(ids) {
		return nil
	}
	ids = ids[skip:]
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
