package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestService struct {
	got         *dto.IngestContentRequest
	bookDeleted int64
}

func (f *fakeIngestService) Ingest(ctx context.Context, req *dto.IngestContentRequest) (*dto.IngestContentResponse, error) {
	f.got = req
	return &dto.IngestContentResponse{ContentIds: []uuid.UUID{uuid.New()}, Chunks: 1, Status: "queued"}, nil
}

func (f *fakeIngestService) Delete(ctx context.Context, id string) (*dto.DeleteContentResponse, error) {
	return &dto.DeleteContentResponse{Id: id, Deleted: id == "known"}, nil
}

func (f *fakeIngestService) DeleteBook(ctx context.Context, bookId string) (*dto.DeleteBookResponse, error) {
	return &dto.DeleteBookResponse{BookId: bookId, Deleted: f.bookDeleted}, nil
}

func newIngestApp(svc *fakeIngestService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewIngestController(svc).RegisterRoutes(app.Group("/api"), serverutils.OptionalJwtMiddleware(testSecret))
	return app
}

func upload(t *testing.T, app *fiber.App, fields map[string]string, filename string, content []byte) int {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/v1/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestUploadTextFile(t *testing.T) {
	svc := &fakeIngestService{}
	app := newIngestApp(svc)

	code := upload(t, app, map[string]string{"book_id": "handbook", "title": "RAG Handbook"},
		"chapter1.txt", []byte("RAG combines retrieval\r\nwith generation.\n"))

	assert.Equal(t, fiber.StatusAccepted, code)
	require.NotNil(t, svc.got)
	assert.Equal(t, "handbook", svc.got.BookId)
	assert.Equal(t, "RAG combines retrieval\nwith generation.", svc.got.Content)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		content  []byte
		want     int
	}{
		{"no file", map[string]string{"book_id": "b", "title": "t"}, "", nil, fiber.StatusBadRequest},
		{"empty file", map[string]string{"book_id": "b", "title": "t"}, "blank.txt", []byte("  \n\n"), fiber.StatusUnprocessableEntity},
		{"missing title", map[string]string{"book_id": "b"}, "a.txt", []byte("some text"), fiber.StatusUnprocessableEntity},
		{"broken pdf", map[string]string{"book_id": "b", "title": "t"}, "a.pdf", []byte("not a pdf"), fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeIngestService{}
			code := upload(t, newIngestApp(svc), tt.fields, tt.filename, tt.content)
			assert.Equal(t, tt.want, code)
			assert.Nil(t, svc.got)
		})
	}
}

func TestDeleteRoutes(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		bookDeleted int64
		want        int
	}{
		{"known chunk", "/api/ingest/v1/known", 0, fiber.StatusOK},
		{"unknown chunk", "/api/ingest/v1/other", 0, fiber.StatusNotFound},
		{"book with chunks", "/api/ingest/v1/books/handbook", 3, fiber.StatusOK},
		{"empty book", "/api/ingest/v1/books/handbook", 0, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newIngestApp(&fakeIngestService{bookDeleted: tt.bookDeleted})
			resp, err := app.Test(httptest.NewRequest(http.MethodDelete, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusOK && tt.bookDeleted > 0 {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				data := body["data"].(map[string]interface{})
				assert.EqualValues(t, tt.bookDeleted, data["deleted"])
			}
		})
	}
}
