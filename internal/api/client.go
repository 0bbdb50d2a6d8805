package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/models"
	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer credential for outgoing requests. An
// empty token means the request is sent without credentials.
type TokenSource interface {
	Token() string
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	rest    *resty.Client
	creds   TokenSource
	bus     *events.Bus
	baseURL *url.URL
}

func NewClient(cfg Config, creds TokenSource, bus *events.Bus) *Client {

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if len(userAgent) == 0 {
		userAgent = common.GetUserAgent()
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"baseUrl": cfg.BaseURL,
		}).Warnln("Failed to parse base url, relative redirects will not resolve")
		baseURL = &url.URL{}
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", ContentTypeJSON).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(noFollowRedirects())

	return &Client{
		rest:    rest,
		creds:   creds,
		bus:     bus,
		baseURL: baseURL,
	}
}

// noFollowRedirects hands every redirect back to Do so it can decide
// whether to replay with credentials.
func noFollowRedirects() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Token()
}

// Do sends the request. A temporary redirect is replayed once against the
// new location with the current credential re-attached. A 401 publishes
// events.Unauthorized before the error is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	method := req.GetMethod()
	requestID := uuid.NewString()

	builder := c.rest.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, requestID).
		SetError(&models.ErrorDetail{})

	if token := c.token(); len(token) > 0 {
		builder.SetAuthToken(token)
	}

	if len(req.Query) > 0 {
		builder.SetQueryParams(req.Query)
	}

	switch {
	case req.IsMultipart():
		// No explicit content type, the transport adds the boundary
		builder.SetMultipartFormData(req.Form)
	case req.Body != nil:
		builder.SetHeader(HeaderContentType, ContentTypeJSON).SetBody(req.Body)
	}

	if req.Result != nil {
		builder.SetResult(req.Result)
	}

	logrus.WithFields(logrus.Fields{
		"method":    method,
		"path":      req.Path,
		"attempt":   req.Attempt,
		"requestId": requestID,
	}).Debugln("Sending request")

	res, err := builder.Execute(method, req.Path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"method":    method,
			"path":      req.Path,
			"requestId": requestID,
		}).WithError(err).Errorln("Request failed")
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}

	response := &Response{
		Status:    res.StatusCode(),
		Header:    res.Header(),
		Body:      res.Body(),
		URL:       requestURL(res, req.Path),
		RequestID: requestID,
		Attempt:   req.Attempt,
	}

	switch status := res.StatusCode(); {

	case isReplayableRedirect(status):
		location := res.Header().Get(HeaderLocation)
		if req.CanReplay() && len(location) > 0 {
			target := c.resolveLocation(res, location)

			logrus.WithFields(logrus.Fields{
				"method":   method,
				"from":     response.URL,
				"location": target,
				"attempt":  req.Attempt,
			}).Debugln("Replaying redirected request")

			return c.Do(ctx, req.Replay(target))
		}

		logrus.WithFields(logrus.Fields{
			"method":    method,
			"url":       response.URL,
			"location":  location,
			"requestId": requestID,
		}).Warnln("Redirect not followed")

		return response, c.newAPIError(method, response, res, ErrRedirectLimit)

	case status == http.StatusUnauthorized:
		c.publishUnauthorized(ctx, req, status, requestID)
		return response, c.newAPIError(method, response, res, ErrUnauthorized)

	case status >= http.StatusBadRequest:
		logrus.WithFields(logrus.Fields{
			"method":    method,
			"url":       response.URL,
			"status":    status,
			"requestId": requestID,
		}).Infoln("Request rejected")
		return response, c.newAPIError(method, response, res, nil)
	}

	return response, nil
}

func (c *Client) publishUnauthorized(ctx context.Context, req Request, status int, requestID string) {
	logrus.WithFields(logrus.Fields{
		"path":      req.Path,
		"status":    status,
		"requestId": requestID,
	}).Warnln("Credential rejected by server")

	event := events.NewEvent(events.Unauthorized, "api")
	event.Path = req.Path
	event.Status = status

	if err := c.bus.Publish(ctx, event); err != nil {
		logrus.WithError(err).Errorln("Failed to handle unauthorized event")
	}
}

func (c *Client) newAPIError(method string, response *Response, res *resty.Response, kind error) *APIError {
	apiErr := &APIError{
		Status:    response.Status,
		Body:      response.Body,
		Method:    method,
		URL:       response.URL,
		RequestID: response.RequestID,
		Err:       kind,
	}

	if detail, ok := res.Error().(*models.ErrorDetail); ok && detail != nil {
		apiErr.Detail = detail.Message()
	}

	return apiErr
}

// resolveLocation turns a Location header into an absolute url using the
// url of the request that was redirected.
func (c *Client) resolveLocation(res *resty.Response, location string) string {
	loc, err := url.Parse(location)
	if err != nil {
		return location
	}
	if loc.IsAbs() {
		return loc.String()
	}

	base := c.baseURL
	if res.Request != nil && res.Request.RawRequest != nil && res.Request.RawRequest.URL != nil {
		base = res.Request.RawRequest.URL
	}
	return base.ResolveReference(loc).String()
}

func requestURL(res *resty.Response, fallback string) string {
	if res.Request != nil && res.Request.RawRequest != nil && res.Request.RawRequest.URL != nil {
		return res.Request.RawRequest.URL.String()
	}
	if res.Request != nil && len(res.Request.URL) > 0 {
		return res.Request.URL
	}
	return fallback
}

func (c *Client) Get(ctx context.Context, path string, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Result: result})
	return err
}

func (c *Client) GetWithQuery(ctx context.Context, path string, query map[string]string, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Result: result})
	return err
}

func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Result: result})
	return err
}

// PostForm sends form as multipart form data.
func (c *Client) PostForm(ctx context.Context, path string, form map[string]string, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form, Result: result})
	return err
}

func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Result: result})
	return err
}

func (c *Client) Delete(ctx context.Context, path string, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Result: result})
	return err
}
