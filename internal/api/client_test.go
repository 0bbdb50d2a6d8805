package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticToken struct {
	mu    sync.Mutex
	value string
}

func (s *staticToken) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *staticToken) Set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

func newTestServer(t *testing.T, register func(router *gin.Engine)) *httptest.Server {
	t.Helper()

	router := gin.New()
	router.RedirectTrailingSlash = false
	register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server, creds TokenSource, bus *events.Bus) *Client {
	return NewClient(Config{BaseURL: server.URL}, creds, bus)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var seen []string
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/accounts/", func(c *gin.Context) {
			seen = append(seen, c.GetHeader("Authorization"))
			c.JSON(http.StatusOK, []models.Account{{ID: 1, Name: "Cash"}})
		})
	})

	token := &staticToken{value: "abc"}
	client := newTestClient(server, token, nil)

	var accounts []models.Account
	require.NoError(t, client.Get(context.Background(), "/accounts/", &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "Cash", accounts[0].Name)

	token.Set("")
	require.NoError(t, client.Get(context.Background(), "/accounts/", &accounts))

	assert.Equal(t, []string{"Bearer abc", ""}, seen)
}

func TestClient_ContentTypeByPayload(t *testing.T) {
	var contentTypes []string
	var username string
	server := newTestServer(t, func(router *gin.Engine) {
		router.POST("/echo/", func(c *gin.Context) {
			contentTypes = append(contentTypes, c.GetHeader("Content-Type"))
			if v, ok := c.GetPostForm("username"); ok {
				username = v
			}
			c.JSON(http.StatusOK, gin.H{})
		})
	})

	client := newTestClient(server, nil, nil)

	require.NoError(t, client.PostForm(context.Background(), "/echo/", map[string]string{
		"username": "testuser",
		"password": "testpass123",
	}, nil))
	require.NoError(t, client.Post(context.Background(), "/echo/", map[string]string{"name": "x"}, nil))

	require.Len(t, contentTypes, 2)
	assert.True(t, strings.HasPrefix(contentTypes[0], "multipart/form-data; boundary="),
		"multipart content type should carry the boundary, got %q", contentTypes[0])
	assert.Equal(t, "testuser", username)
	assert.Equal(t, ContentTypeJSON, contentTypes[1])
}

func TestClient_ReplaysTemporaryRedirectOnce(t *testing.T) {
	var redirectHits, targetHits int
	var targetAuth string

	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/users/me", func(c *gin.Context) {
			redirectHits++
			c.Redirect(http.StatusTemporaryRedirect, "/users/me/")
		})
		router.GET("/users/me/", func(c *gin.Context) {
			targetHits++
			targetAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, models.User{ID: 7, Username: "testuser"})
		})
	})

	client := newTestClient(server, &staticToken{value: "abc"}, nil)

	var user models.User
	res, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/me", Result: &user})
	require.NoError(t, err)

	assert.Equal(t, 1, redirectHits)
	assert.Equal(t, 1, targetHits)
	assert.Equal(t, "Bearer abc", targetAuth, "credential must be re-attached on replay")
	assert.Equal(t, 1, res.Attempt)
	assert.Equal(t, "testuser", user.Username)
}

func TestClient_ReplayUsesCurrentToken(t *testing.T) {
	token := &staticToken{value: "old"}
	var targetAuth string

	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/start", func(c *gin.Context) {
			token.Set("new")
			c.Redirect(http.StatusTemporaryRedirect, "/finish")
		})
		router.GET("/finish", func(c *gin.Context) {
			targetAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, gin.H{})
		})
	})

	client := newTestClient(server, token, nil)
	require.NoError(t, client.Get(context.Background(), "/start", nil))
	assert.Equal(t, "Bearer new", targetAuth)
}

func TestClient_FollowsAbsoluteLocationWithMethodAndBody(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}
	var server *httptest.Server
	server = newTestServer(t, func(router *gin.Engine) {
		router.POST("/projects", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, server.URL+"/projects/")
		})
		router.POST("/projects/", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&body))
			c.JSON(http.StatusOK, models.Project{ID: 3, Name: body.Name})
		})
	})

	client := newTestClient(server, &staticToken{value: "abc"}, nil)

	var project models.Project
	require.NoError(t, client.Post(context.Background(), "/projects", models.Project{Name: "Renovation"}, &project))
	assert.Equal(t, "Renovation", body.Name)
	assert.Equal(t, 3, project.ID)
}

func TestClient_SecondRedirectIsNotFollowed(t *testing.T) {
	var finalHits int
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/a", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "/b")
		})
		router.GET("/b", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "/c")
		})
		router.GET("/c", func(c *gin.Context) {
			finalHits++
			c.JSON(http.StatusOK, gin.H{})
		})
	})

	client := newTestClient(server, nil, nil)

	res, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedirectLimit)
	assert.Equal(t, http.StatusTemporaryRedirect, StatusOf(err))
	assert.Equal(t, 0, finalHits)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Attempt)
}

func TestClient_RedirectWithoutLocation(t *testing.T) {
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/nowhere", func(c *gin.Context) {
			c.Status(http.StatusTemporaryRedirect)
		})
	})

	client := newTestClient(server, nil, nil)
	err := client.Get(context.Background(), "/nowhere", nil)
	assert.ErrorIs(t, err, ErrRedirectLimit)
}

func TestClient_UnauthorizedPublishesEvent(t *testing.T) {
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/users/me/", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		})
	})

	bus := events.NewBus()
	var received []events.Event
	bus.Subscribe(events.Unauthorized, func(ctx context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})

	client := newTestClient(server, &staticToken{value: "stale"}, bus)

	err := client.Get(context.Background(), "/users/me/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "Could not validate credentials", DetailOf(err, "fallback"))

	require.Len(t, received, 1)
	assert.Equal(t, "/users/me/", received[0].Path)
	assert.Equal(t, http.StatusUnauthorized, received[0].Status)
}

func TestClient_UnauthorizedHandlerErrorStillReturnsAPIError(t *testing.T) {
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/secret", func(c *gin.Context) {
			c.Status(http.StatusUnauthorized)
		})
	})

	bus := events.NewBus()
	bus.Subscribe(events.Unauthorized, func(ctx context.Context, event events.Event) error {
		return errors.New("handler failed")
	})

	client := newTestClient(server, nil, bus)
	err := client.Get(context.Background(), "/secret", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "fallback", DetailOf(err, "fallback"))
}

func TestClient_ErrorDetails(t *testing.T) {
	server := newTestServer(t, func(router *gin.Engine) {
		router.POST("/auth/register/", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already registered"})
		})
		router.POST("/transactions/", func(c *gin.Context) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
				{"loc": []any{"body", "amount"}, "msg": "field required", "type": "value_error.missing"},
				{"loc": []any{"body", "currency"}, "msg": "field required", "type": "value_error.missing"},
			}})
		})
		router.GET("/broken", func(c *gin.Context) {
			c.String(http.StatusInternalServerError, "Internal Server Error")
		})
	})

	client := newTestClient(server, nil, nil)

	err := client.Post(context.Background(), "/auth/register/", models.Registration{Username: "dup"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Username already registered", apiErr.Detail)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Contains(t, apiErr.URL, "/auth/register/")
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, apiErr.RequestID, RequestIDOf(err))
	assert.NotErrorIs(t, err, ErrUnauthorized)

	err = client.Post(context.Background(), "/transactions/", models.Transaction{}, nil)
	assert.Equal(t, "field required; field required", DetailOf(err, "fallback"))

	err = client.Get(context.Background(), "/broken", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Internal Server Error", string(apiErr.Body))
	assert.Equal(t, "fallback", apiErr.Message("fallback"))
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil)

	err := client.Get(context.Background(), "/users/me", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
	assert.Empty(t, RequestIDOf(err))
	assert.Contains(t, err.Error(), "GET /users/me")
}

func TestClient_QueryAndRequestID(t *testing.T) {
	var skip, limit string
	var requestIDs []string
	server := newTestServer(t, func(router *gin.Engine) {
		router.GET("/transactions", func(c *gin.Context) {
			requestIDs = append(requestIDs, c.GetHeader(HeaderRequestID))
			c.Redirect(http.StatusTemporaryRedirect, "/transactions/?"+c.Request.URL.RawQuery)
		})
		router.GET("/transactions/", func(c *gin.Context) {
			requestIDs = append(requestIDs, c.GetHeader(HeaderRequestID))
			skip = c.Query("skip")
			limit = c.Query("limit")
			c.JSON(http.StatusOK, []models.Transaction{})
		})
	})

	client := newTestClient(server, nil, nil)
	require.NoError(t, client.GetWithQuery(context.Background(), "/transactions", map[string]string{
		"skip":  "10",
		"limit": "5",
	}, nil))

	assert.Equal(t, "10", skip)
	assert.Equal(t, "5", limit)
	require.Len(t, requestIDs, 2)
	assert.NotEmpty(t, requestIDs[0])
	assert.NotEqual(t, requestIDs[0], requestIDs[1], "each attempt gets its own request id")
}

func TestRequest_Replay(t *testing.T) {
	original := Request{Method: "post", Path: "/a", Body: map[string]string{"k": "v"}}

	next := original.Replay("/b")
	assert.Equal(t, "/a", original.Path, "replay must not mutate the original")
	assert.Equal(t, 0, original.Attempt)
	assert.Equal(t, "/b", next.Path)
	assert.Equal(t, 1, next.Attempt)
	assert.Equal(t, http.MethodPost, next.GetMethod())
	assert.True(t, original.CanReplay())
	assert.False(t, next.CanReplay())
}
