package acl

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
)

// testConfig returns a minimal transport config for testing.
func testConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "card-catalog",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *BaseAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewBaseAdapter(client, nil, "card-catalog")
}

func TestBaseAdapter_Accessors(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {})

	assert.Equal(t, "card-catalog", a.ServiceName())
	assert.NotNil(t, a.Client())
	assert.NotNil(t, a.Builder())
}

func TestBaseAdapter_DoRequest(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		target   notFoundTarget
		wantBody string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "success body",
			status:   http.StatusOK,
			body:     `{"data":null}`,
			wantBody: `{"data":null}`,
		},
		{
			name:   "404 with target",
			status: http.StatusNotFound,
			body:   `{"message":"No query results for model [Card] 9"}`,
			target: notFoundTarget{resourceType: domain.KindCard, id: "9"},
			check: func(t *testing.T, err error) {
				var cnf *domain.CardNotFoundError
				require.ErrorAs(t, err, &cnf)
				assert.Equal(t, "9", cnf.ResourceID)
				assert.Equal(t, "No query results for model [Card] 9", cnf.Message())
				assert.Equal(t, http.StatusNotFound, cnf.Context()[ContextStatusCode])
			},
		},
		{
			name:   "404 without target",
			status: http.StatusNotFound,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				var nf *domain.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Empty(t, nf.ResourceType)
			},
		},
		{
			name:   "422 classified",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"The given data was invalid.","errors":{"name":["The name field is required."]}}`,
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.True(t, ve.HasFieldError("name"))
			},
		},
		{
			name:   "500 classified",
			status: http.StatusInternalServerError,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrServer)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			body, err := a.DoRequest(func() (*http.Response, error) {
				return a.Client().Get(t.Context(), "/cards/9", nil)
			}, tt.target)

			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
				return
			}

			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestBaseAdapter_DoRequest_TransportFailure(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {})

	_, err := a.DoRequest(func() (*http.Response, error) {
		return nil, clients.ErrCircuitOpen
	}, notFoundTarget{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, clients.ErrCircuitOpen)
}

func TestBaseAdapter_SendDocument_NoContent(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	doc, err := a.SendDocument(t.Context(), http.MethodPatch, "/cards/1", []byte(`{}`), notFoundTarget{})

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestAs(t *testing.T) {
	card := domain.DefaultRegistry().Build("1", "cards", map[string]any{"name": "Rookie"})
	team := domain.DefaultRegistry().Build("2", "teams", nil)

	got, err := As[*domain.Card](card)
	require.NoError(t, err)
	assert.Equal(t, "Rookie", got.Name())

	_, err = As[*domain.Card](team)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeserialization)
	assert.Contains(t, err.Error(), `"teams"`)

	_, err = As[*domain.Card](nil)
	assert.ErrorIs(t, err, domain.ErrDeserialization)
}

func TestTranslateSlice(t *testing.T) {
	reg := domain.DefaultRegistry()

	t.Run("success", func(t *testing.T) {
		items := []domain.Model{
			reg.Build("1", "players", map[string]any{"first_name": "Ken", "last_name": "Griffey"}),
			reg.Build("2", "players", map[string]any{"first_name": "Cal", "last_name": "Ripken"}),
		}

		players, err := AsSlice[*domain.Player](items)

		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, "Ken Griffey", players[0].FullName())
		assert.Equal(t, "Cal Ripken", players[1].FullName())
	})

	t.Run("first failure wins", func(t *testing.T) {
		items := []domain.Model{
			reg.Build("1", "players", nil),
			reg.Build("2", "teams", nil),
			reg.Build("3", "brands", nil),
		}

		_, err := AsSlice[*domain.Player](items)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "item 1")
		assert.ErrorIs(t, err, domain.ErrDeserialization)
	})

	t.Run("empty", func(t *testing.T) {
		players, err := AsSlice[*domain.Player](nil)

		require.NoError(t, err)
		assert.Empty(t, players)
	})

	t.Run("custom translator", func(t *testing.T) {
		sentinel := errors.New("rejected")
		translate := func(m domain.Model) (*domain.Object, error) {
			if m.Base().ID == "2" {
				return nil, sentinel
			}
			return m.Base(), nil
		}

		_, err := TranslateSlice[*domain.Object]([]domain.Model{reg.Build("1", "years", nil), reg.Build("2", "years", nil)}, translate)

		assert.ErrorIs(t, err, sentinel)
	})
}
