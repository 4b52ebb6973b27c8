//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindgrove-ai/studykit/internal/api/handlers"
	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/engine"
	"github.com/mindgrove-ai/studykit/internal/repository"
	"github.com/mindgrove-ai/studykit/internal/server"
	"github.com/mindgrove-ai/studykit/internal/service"
	"github.com/mindgrove-ai/studykit/internal/storage"
	"github.com/mindgrove-ai/studykit/internal/testutil"
)

// scriptedChat is a ChatClient fake that echoes the question into a
// deterministic completion, so the full request path runs without a
// real language model.
type scriptedChat struct{}

func (c *scriptedChat) Available() bool { return true }

func (c *scriptedChat) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	return fmt.Sprintf("Answer to %q grounded in %d bytes of context.", question, len(contextText)), nil
}

func (c *scriptedChat) GenerateStudyMaterial(ctx context.Context, materialType domain.MaterialType, contextText, topic string) (string, error) {
	switch materialType {
	case domain.MaterialFlashcards:
		return "Q: What is covered?\nA: The uploaded material.", nil
	case domain.MaterialQuiz:
		return "Question 1: What is covered?\nA) This  B) That  C) Other  D) None\nCorrect answer: A", nil
	default:
		return "A short study summary of the uploaded material.", nil
	}
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	Engine     *engine.Engine
	HTTPClient *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	artifacts, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-snapshots",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 store: %v", err)
	}
	if err := artifacts.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	docs := repository.NewDocumentRepository(pool)
	eng := engine.New(docs, artifacts)
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("failed to start engine: %v", err)
	}

	chat := &scriptedChat{}
	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(eng),
		SearchHandler:   handlers.NewSearchHandler(eng, engine.DefaultTopK, engine.DefaultMinSimilarity),
		StudyHandler:    handlers.NewStudyHandler(service.NewAnswerService(eng, chat), service.NewStudyService(eng, chat)),
		StatusHandler:   handlers.NewStatusHandler(eng, chat.Available()),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Server:     srv,
		Engine:     eng,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Post performs a POST request against the test server.
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	resp, err := e.HTTPClient.Post(e.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	return readResponse(resp)
}

// Get performs a GET request against the test server.
func (e *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	resp, err := e.HTTPClient.Get(e.Server.URL + path)
	if err != nil {
		return nil, 0, err
	}
	return readResponse(resp)
}

// Delete performs a DELETE request against the test server.
func (e *E2ETestEnv) Delete(path string) (*APIResponse, int, error) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) (*APIResponse, int, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse response %q: %w", string(body), err)
	}
	return &apiResp, resp.StatusCode, nil
}
