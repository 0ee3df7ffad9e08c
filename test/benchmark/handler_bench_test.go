package benchmark

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk"
	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	stub "github.com/jsamuelsen/cardsdk/internal/adapters/http"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/handlers"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
}

func newEngine() *gin.Engine {
	return stub.NewEngine(stub.RouterConfig{
		ServiceName: "catalog-stub-bench",
		Store:       fixtures.Seeded(),
	})
}

// fetchBody renders path through the stub once.
func fetchBody(b *testing.B, path string) []byte {
	b.Helper()

	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	if w.Code != http.StatusOK {
		b.Fatalf("GET %s: status %d", path, w.Code)
	}

	body, err := io.ReadAll(w.Body)
	if err != nil {
		b.Fatal(err)
	}

	return body
}

// BenchmarkLivenessHandler measures the liveness check.
func BenchmarkLivenessHandler(b *testing.B) {
	handler := handlers.NewHealthHandler(
		ports.NewHealthRegistry(),
		handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z"),
		nil,
		nil,
	)
	req := httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		handler.Liveness(c)
	}
}

// BenchmarkStubList measures a filtered, side-loaded listing.
func BenchmarkStubList(b *testing.B) {
	engine := newEngine()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/cards?include=set,card-images&filter%5Bset_id%5D=1&sort=-number", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
	}
}

// BenchmarkBuilderParseOne measures graph building for one resource with
// its relations side-loaded.
func BenchmarkBuilderParseOne(b *testing.B) {
	body := fetchBody(b, "/v1/cards/1?include=set,card-images,player-teams")
	builder := jsonapi.NewBuilder()

	b.ReportAllocs()

	for b.Loop() {
		if _, err := builder.ParseOne(body); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBuilderParsePage measures graph building for a collection page.
func BenchmarkBuilderParsePage(b *testing.B) {
	body := fetchBody(b, "/v1/cards?include=set,card-images&page%5Bsize%5D=50")
	builder := jsonapi.NewBuilder()

	b.ReportAllocs()

	for b.Loop() {
		if _, err := builder.ParsePage(body); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkClientCard measures an SDK fetch end to end over loopback.
func BenchmarkClientCard(b *testing.B) {
	server := httptest.NewServer(newEngine())
	b.Cleanup(server.Close)

	client, err := cardsdk.New(b.Context(), &cardsdk.Config{
		API: config.APIConfig{BaseURL: server.URL + "/v1", ServiceName: "card-catalog", DefaultPerPage: 15},
		Client: config.ClientConfig{
			Timeout:        5 * time.Second,
			Retry:          config.RetryConfig{MaxAttempts: 1, InitialInterval: 10 * time.Millisecond, MaxInterval: 100 * time.Millisecond, Multiplier: 2},
			CircuitBreaker: config.CircuitBreakerConfig{MaxFailures: 100, Timeout: time.Second, HalfOpenLimit: 1},
		},
	}, cardsdk.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()

	for b.Loop() {
		if _, err := client.Card(b.Context(), "1", "set"); err != nil {
			b.Fatal(err)
		}
	}
}
