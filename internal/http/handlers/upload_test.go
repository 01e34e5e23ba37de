package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type recordingImages struct {
	contentType string
	body        []byte
}

func (r *recordingImages) PutImage(_ context.Context, src io.Reader, _ int64, contentType string) (string, error) {
	r.contentType = contentType
	b, err := io.ReadAll(src)
	r.body = b
	return "https://cdn.example.com/images/abc.png", err
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func uploadRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, "photo.bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serveUpload(images ImageStore, maxBytes int64, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", NewUploadHandler(images, maxBytes, slog.New(slog.NewTextHandler(io.Discard, nil))).UploadImage)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestUploadImageStoresSniffedType(t *testing.T) {
	images := &recordingImages{}
	rec, body := serveUpload(images, 1<<20, uploadRequest(t, "image", pngHeader))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "https://cdn.example.com/images/abc.png", body["url"])
	require.Equal(t, "image/png", images.contentType)
	require.Equal(t, pngHeader, images.body)
}

func TestUploadImageRejections(t *testing.T) {
	images := &recordingImages{}

	rec, body := serveUpload(images, 1<<20, uploadRequest(t, "", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing required upload", body["message"])

	rec, _ = serveUpload(images, 1<<20, uploadRequest(t, "image", []byte("just some text")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serveUpload(images, 4, uploadRequest(t, "image", pngHeader))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Empty(t, images.contentType)
}
