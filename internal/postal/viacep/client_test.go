package viacep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda/internal/postal"
	"agenda/pkg/platform/sentinel"
	"agenda/pkg/requestcontext"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/{cep}/json/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch chi.URLParam(r, "cep") {
		case "01310000":
			_, _ = w.Write([]byte(`{"cep":"01310-000","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
		case "13150000":
			_, _ = w.Write([]byte(`{"street":"Rua Campos Sales","district":"Centro","city":"Cosmópolis","stateCode":"sp"}`))
		case "99999998":
			_, _ = w.Write([]byte(`{"erro": true}`))
		case "99999997":
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		case "50000000":
			http.Error(w, "upstream down", http.StatusBadGateway)
		case "60000000":
			_, _ = w.Write([]byte(`not json`))
		case "70000000":
			_, _ = w.Write([]byte(`{"localidade":"` + r.Header.Get(requestcontext.HeaderRequestID) + `"}`))
		case "80000000":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := newServer(t)
	client := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	ctx := context.Background()

	t.Run("viacep field names", func(t *testing.T) {
		addr, err := client.Lookup(ctx, "01310-000")
		require.NoError(t, err)
		assert.Equal(t, postal.Address{
			PostalCode: "01310000",
			Street:     "Avenida Paulista",
			District:   "Bela Vista",
			City:       "São Paulo",
			StateCode:  "SP",
		}, addr)
	})

	t.Run("neutral field names", func(t *testing.T) {
		addr, err := client.Lookup(ctx, "13150000")
		require.NoError(t, err)
		assert.Equal(t, "Rua Campos Sales", addr.Street)
		assert.Equal(t, "Cosmópolis", addr.City)
		assert.Equal(t, "SP", addr.StateCode)
	})

	t.Run("erro flag as bool or string", func(t *testing.T) {
		_, err := client.Lookup(ctx, "99999998")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = client.Lookup(ctx, "99999997")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("404 is not found", func(t *testing.T) {
		_, err := client.Lookup(ctx, "12345678")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("non-2xx is unavailable", func(t *testing.T) {
		_, err := client.Lookup(ctx, "50000000")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("bad body is unavailable", func(t *testing.T) {
		_, err := client.Lookup(ctx, "60000000")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("malformed code never hits the network", func(t *testing.T) {
		_, err := client.Lookup(ctx, "1111-1111")
		var formatErr *postal.FormatError
		assert.ErrorAs(t, err, &formatErr)
	})

	t.Run("forwards the request id", func(t *testing.T) {
		addr, err := client.Lookup(requestcontext.WithRequestID(ctx, "req-9"), "70000000")
		require.NoError(t, err)
		assert.Equal(t, "req-9", addr.City)
	})
}

func TestLookupTimeout(t *testing.T) {
	srv := newServer(t)
	client := New(srv.URL, WithHTTPClient(srv.Client()), WithTimeout(20*time.Millisecond))

	_, err := client.Lookup(context.Background(), "80000000")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
