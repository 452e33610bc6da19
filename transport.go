package httpflow

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	defaultTimeout           = 60 * time.Second
	defaultConnectionTimeout = 30 * time.Second
)

// Transport executes a substituted HttpRequest against a live server.
type Transport interface {
	Do(ctx context.Context, req *HttpRequest) (*HttpResult, error)
}

// HTTPTransport is the default net/http-backed Transport implementation.
type HTTPTransport struct {
	Insecure bool
	jar      *cookiejar.Jar
}

// NewHTTPTransport builds a transport with a cookie jar shared across
// requests that do not opt out via NoCookieJar.
func NewHTTPTransport(insecure bool) (*HTTPTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{Insecure: insecure, jar: jar}, nil
}

func (t *HTTPTransport) Do(ctx context.Context, req *HttpRequest) (*HttpResult, error) {
	client := t.buildClient(req)

	connectionTimeout := defaultConnectionTimeout
	if req.ConnectionTimeoutMS > 0 {
		connectionTimeout = time.Duration(req.ConnectionTimeoutMS) * time.Millisecond
	}
	readTimeout := defaultTimeout
	if req.TimeoutMS > 0 {
		readTimeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	client.Transport = &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectionTimeout}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: t.Insecure, //nolint:gosec // --insecure is an explicit user opt-in
		},
		TLSHandshakeTimeout: connectionTimeout,
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return &HttpResult{StatusCode: 0, ErrorMessage: classifyError(err)}, nil
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return &HttpResult{StatusCode: 0, Duration: duration, ErrorMessage: classifyError(err)}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &HttpResult{StatusCode: resp.StatusCode, Duration: duration, ErrorMessage: classifyError(err)}, nil
	}

	return &HttpResult{
		StatusCode:      resp.StatusCode,
		Duration:        duration,
		ResponseHeaders: foldHeaders(resp.Header),
		ResponseBody:    string(body),
	}, nil
}

func (t *HTTPTransport) buildClient(req *HttpRequest) *http.Client {
	client := &http.Client{}
	if !req.NoCookieJar {
		client.Jar = t.jar
	}
	if req.NoRedirect {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

func buildHTTPRequest(ctx context.Context, req *HttpRequest) (*http.Request, error) {
	var body io.Reader
	if req.RawBody != "" {
		body = strings.NewReader(req.RawBody)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.RawURL, body)
	if err != nil {
		return nil, err
	}
	if req.RawBody != "" {
		bodyCopy := req.RawBody
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(bodyCopy)), nil
		}
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	return httpReq, nil
}

func foldHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case strings.Contains(err.Error(), "context deadline exceeded"), strings.Contains(err.Error(), "Client.Timeout"):
		return "timeout: " + err.Error()
	case strings.Contains(err.Error(), "connection refused"):
		return "connection refused: " + err.Error()
	case strings.Contains(err.Error(), "x509"), strings.Contains(err.Error(), "tls"):
		return "tls error: " + err.Error()
	default:
		return err.Error()
	}
}
