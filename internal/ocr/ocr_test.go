package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/extract"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:            "k",
		Endpoint:          srv.URL,
		DetectOrientation: true,
		Scale:             true,
		IsTable:           true,
		Timeout:           timeout,
	}, nil)
}

var pngDoc = extract.Document{Data: []byte("\x89PNG fake"), MediaType: "image/png"}

func TestExtractText_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "k", r.FormValue("apikey"))
		assert.Equal(t, "eng", r.FormValue("language"))
		assert.Equal(t, "2", r.FormValue("OCREngine"))
		assert.Equal(t, "true", r.FormValue("scale"))
		assert.Equal(t, "true", r.FormValue("isTable"))
		assert.Equal(t, "PNG", r.FormValue("filetype"))
		_, fh, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "scan.png", fh.Filename)
		_, _ = w.Write([]byte(`{"ParsedResults":[{"ParsedText":"STARBUCKS\r\nLatte 4.50\r\n"},{"ParsedText":"TOTAL 5.25"}],"IsErroredOnProcessing":false}`))
	}, time.Second)

	res, err := c.ExtractText(context.Background(), pngDoc)
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS\nLatte 4.50\nTOTAL 5.25", res.Text)
	assert.Equal(t, 2, res.Pages)
}

func TestExtractText_ServiceError(t *testing.T) {
	cases := map[string]struct {
		body   string
		reason string
	}{
		"array message":  {`{"IsErroredOnProcessing":true,"ErrorMessage":["File failed validation"]}`, "File failed validation"},
		"string message": {`{"IsErroredOnProcessing":true,"ErrorMessage":"Timed out waiting for results"}`, "Timed out waiting for results"},
		"no message":     {`{"IsErroredOnProcessing":true}`, "ocr processing failed"},
		"blank text":     {`{"ParsedResults":[{"ParsedText":"  \n "}]}`, extract.ReasonNoText},
		"no results":     {`{"ParsedResults":[]}`, extract.ReasonNoText},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}, time.Second)
			_, err := c.ExtractText(context.Background(), pngDoc)
			var f *extract.OCRFailure
			require.True(t, errors.As(err, &f))
			assert.Equal(t, tc.reason, f.Reason)
		})
	}
}

func TestExtractText_BadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}, time.Second)
	_, err := c.ExtractText(context.Background(), pngDoc)
	var f *extract.OCRFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "ocr service status 403", f.Reason)
}

func TestExtractText_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.ExtractText(context.Background(), pngDoc)
	var f *extract.OCRFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, extract.ReasonTransportError, f.Reason)
	assert.Error(t, f.Err)
}

func TestExtractText_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}, time.Second)
	_, err := c.ExtractText(context.Background(), pngDoc)
	var f *extract.OCRFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, extract.ReasonTransportError, f.Reason)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb\n\nc", Normalize("a  \r\nb\r\n\n\n\nc\t"))
}
