package yahoo_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"volskew/internal/provider/yahoo"
)

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(buffer),
	}
}

func textResponse(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewYahooAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: defaults should return a client.
	client, err := yahoo.NewYahooAPIClient()
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestNewYahooAPIClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	// Act: an unparsable base url is rejected up front
	client, err := yahoo.NewYahooAPIClient(yahoo.WithBaseURL(string([]byte{0x7f})))

	// Assert
	require.Error(t, err)
	require.Nil(t, client)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			return jsonResponse(t, http.StatusOK, map[string]any{}), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBaseURL(baseURL+"/"), yahoo.WithCrumb("c"))
	require.NoError(t, err)

	// Act: the empty body has no result, the request shape is what matters here.
	_, _ = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(t, http.StatusOK, map[string]any{}), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithCrumb("c"), yahoo.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)

	// Act
	_, _ = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
}

func TestCrumbHandshake(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: cookie, crumb, then the data request carrying both, in order.
	gomock.InOrder(
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "http://cookie.test", req.URL.String())
				return textResponse(http.StatusNotFound, "", http.Header{"Set-Cookie": []string{"A3=session; Path=/"}}), nil
			}),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "/v1/test/getcrumb", req.URL.Path)
				ck, err := req.Cookie("A3")
				require.NoError(t, err)
				require.Equal(t, "session", ck.Value)
				return textResponse(http.StatusOK, "abc123\n", nil), nil
			}),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "abc123", req.URL.Query().Get("crumb"))
				ck, err := req.Cookie("A3")
				require.NoError(t, err)
				require.Equal(t, "session", ck.Value)
				return jsonResponse(t, http.StatusOK, mockChartResponse), nil
			}).
			Times(2),
	)

	// Arrange: a client without a preset crumb
	client, err := yahoo.NewYahooAPIClient(
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithBaseURL("http://api.test"),
		yahoo.WithCookieURL("http://cookie.test"),
	)
	require.NoError(t, err)

	// Act: two calls, one handshake
	_, err = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
	require.NoError(t, err)
	_, err = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
	require.NoError(t, err)
}

func TestCrumbHandshake_Rejected(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusOK, "", nil), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusTooManyRequests, "Too Many Requests", nil), nil),
	)
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	_, err = client.GetOptionsV7(t.Context(), "AAPL", 0)

	// Assert
	require.ErrorContains(t, err, "fetching crumb")
}

func TestUnauthorizedResetsCrumb(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusUnauthorized, "", nil), nil),
		// the rejected crumb is dropped, so the next call handshakes again
		httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusOK, "", nil), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusOK, "fresh", nil), nil),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "fresh", req.URL.Query().Get("crumb"))
				return jsonResponse(t, http.StatusOK, mockChartResponse), nil
			}),
	)
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithCrumb("stale"))
	require.NoError(t, err)

	// Act
	_, err = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
	require.ErrorIs(t, err, yahoo.ErrUnauthorized)

	_, err = client.GetChartV8(t.Context(), "AAPL", "1d", "1d")
	require.NoError(t, err)
}

func TestUnexpectedStatus(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(textResponse(http.StatusBadGateway, "", nil), nil).Times(1)
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithCrumb("c"))
	require.NoError(t, err)

	// Act
	_, err = client.GetOptionsV7(t.Context(), "AAPL", 0)

	// Assert
	require.ErrorContains(t, err, "unexpected status code: 502")
}
