package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/utils/imageconv"
)

type fakeVertex struct {
	mu       sync.Mutex
	calls    []string
	requests []predictRequest
	// respond returns status and body for a model
	respond func(model string) (int, string)
}

func (f *fakeVertex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ":predict")

	var req predictRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	status, body := f.respond(model)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func pngBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func imageBody(t *testing.T) string {
	return fmt.Sprintf(`{"predictions": [{"bytesBase64Encoded": %q, "mimeType": "image/png"}]}`, pngBase64(t))
}

func newTestClient(t *testing.T, f *fakeVertex, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	opts = append([]ClientOption{WithHTTPClient(srv.Client()), WithLogger(logging.NopLogger{})}, opts...)
	return NewClient(srv.URL, "demo-project", "us-central1", opts...)
}

func TestGeneratePrimarySucceeds(t *testing.T) {
	f := &fakeVertex{respond: func(string) (int, string) { return http.StatusOK, imageBody(t) }}
	c := newTestClient(t, f)

	img, err := c.Generate(context.Background(), "A sunlit bakery counter with fresh loaves")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, img.Model)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, imageconv.JPEG, imageconv.Detect(img.Data))
	assert.Equal(t, []string{DefaultModel}, f.calls)

	req := f.requests[0]
	require.Len(t, req.Instances, 1)
	assert.Equal(t, "A sunlit bakery counter with fresh loaves"+StudioModifiers, req.Instances[0].Prompt)
	assert.Equal(t, 1, req.Parameters.SampleCount)
	assert.Equal(t, "4:3", req.Parameters.AspectRatio)
	assert.Equal(t, "allow_adult", req.Parameters.PersonGeneration)
}

func TestGenerateFallsBackExactlyOnce(t *testing.T) {
	f := &fakeVertex{respond: func(model string) (int, string) {
		if model == DefaultModel {
			return http.StatusServiceUnavailable, `{"error": {"code": 503, "message": "model overloaded"}}`
		}
		return http.StatusOK, imageBody(t)
	}}
	c := newTestClient(t, f, WithFormat(imageconv.PNG))

	img, err := c.Generate(context.Background(), "An empty waiting room")
	require.NoError(t, err)

	assert.Equal(t, DefaultFallbackModel, img.Model)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, []string{DefaultModel, DefaultFallbackModel}, f.calls)
}

func TestGenerateBothModelsFail(t *testing.T) {
	f := &fakeVertex{respond: func(string) (int, string) {
		return http.StatusTooManyRequests, `{"error": {"code": 429, "message": "quota exceeded"}}`
	}}
	c := newTestClient(t, f)

	img, err := c.Generate(context.Background(), "A storefront")
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.ErrorIs(t, err, apierr.ErrQuota)
	assert.Len(t, f.calls, 2, "one primary attempt and one fallback attempt")
}

func TestGenerateSafetyFilteredDoesNotFallBack(t *testing.T) {
	f := &fakeVertex{respond: func(string) (int, string) {
		return http.StatusOK, `{"predictions": [{"raiFilteredReason": "filtered for safety"}]}`
	}}
	c := newTestClient(t, f)

	img, err := c.Generate(context.Background(), "A crowded playground")
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.ErrorIs(t, err, ErrSafetyFiltered)
	assert.ErrorIs(t, err, apierr.ErrContentPolicy)
	assert.Len(t, f.calls, 1)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	f := &fakeVertex{respond: func(string) (int, string) { return http.StatusOK, imageBody(t) }}
	c := newTestClient(t, f)

	_, err := c.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, f.calls)
}

func TestGenerateNoFallbackConfigured(t *testing.T) {
	f := &fakeVertex{respond: func(string) (int, string) {
		return http.StatusNotFound, `{"error": {"code": 404, "message": "model not found"}}`
	}}
	c := newTestClient(t, f, WithModels("imagen-4.0-generate-001", ""))

	_, err := c.Generate(context.Background(), "A bicycle")
	assert.ErrorIs(t, err, apierr.ErrModelUnavailable)
	assert.Equal(t, []string{"imagen-4.0-generate-001"}, f.calls)
}

func TestModifiers(t *testing.T) {
	assert.Equal(t, PhoneModifiers, Modifiers("Authentic UGC photo of a latte"))
	assert.Equal(t, PhoneModifiers, Modifiers("customer's iPhone snapshot"))
	assert.Equal(t, StudioModifiers, Modifiers("A polished product shot of a watch"))
}
