// Package mockregistry serves canned copies of the remote endpoints the
// reference-data loader and the postal resolver talk to, for local
// development and demos without network access.
package mockregistry

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"agenda/internal/postal"
	"agenda/pkg/platform/httputil"
	"agenda/pkg/platform/middleware/request"
	"agenda/pkg/requestcontext"
)

// Handler serves the mock endpoints.
type Handler struct {
	logger      *slog.Logger
	cities      []string
	specialties []string
	addresses   map[string]postal.Address
}

// New creates a Handler answering with the given lists. Addresses default to
// DefaultAddresses when nil.
func New(logger *slog.Logger, cities, specialties []string, addresses map[string]postal.Address) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if addresses == nil {
		addresses = DefaultAddresses()
	}
	return &Handler{
		logger:      logger,
		cities:      append([]string(nil), cities...),
		specialties: append([]string(nil), specialties...),
		addresses:   addresses,
	}
}

// DefaultAddresses is the fixture set of postal codes the mock knows about.
func DefaultAddresses() map[string]postal.Address {
	return map[string]postal.Address{
		"01310100": {PostalCode: "01310100", Street: "Avenida Paulista", District: "Bela Vista", City: "São Paulo", StateCode: "SP"},
		"13150000": {PostalCode: "13150000", City: "Cosmópolis", StateCode: "SP"},
		"13150148": {PostalCode: "13150148", Street: "Rua Campos Sales", District: "Centro", City: "Cosmópolis", StateCode: "SP"},
		"13083970": {PostalCode: "13083970", Street: "Rua Sérgio Buarque de Holanda", District: "Cidade Universitária", City: "Campinas", StateCode: "SP"},
	}
}

// Register mounts the mock routes on r.
func (h *Handler) Register(r chi.Router) {
	mock := chi.NewRouter()
	mock.Use(chimw.Recoverer)
	mock.Use(request.RequestID)
	mock.Use(request.Logger(h.logger))
	mock.Use(chimw.Timeout(30 * time.Second))
	mock.Get("/api/especialidades", h.handleSpecialties)
	mock.Get("/api/municipios", h.handleCities)
	mock.Get("/ws/{cep}/json/", h.handlePostalCode)

	r.Mount("/", mock)
}

// Router returns a standalone router with the mock routes registered.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

type municipality struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

type specialtiesResponse struct {
	Specialties []string `json:"especialidades"`
}

// viaCEPResponse mirrors the public address-lookup payload.
type viaCEPResponse struct {
	CEP          string `json:"cep,omitempty"`
	Street       string `json:"logradouro,omitempty"`
	District     string `json:"bairro,omitempty"`
	City         string `json:"localidade,omitempty"`
	StateCode    string `json:"uf,omitempty"`
	Unidentified bool   `json:"erro,omitempty"`
}

func (h *Handler) handleSpecialties(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, specialtiesResponse{Specialties: h.specialties})
}

func (h *Handler) handleCities(w http.ResponseWriter, r *http.Request) {
	out := make([]municipality, 0, len(h.cities))
	for i, name := range h.cities {
		out = append(out, municipality{ID: 3500000 + i + 1, Name: name})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePostalCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	digits := postal.Digits(chi.URLParam(r, "cep"))
	if err := postal.ValidateFormat(digits); err != nil {
		h.logger.InfoContext(ctx, "rejected malformed postal code",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "postal code must have 8 digits")
		return
	}

	addr, ok := h.addresses[digits]
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, viaCEPResponse{Unidentified: true})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viaCEPResponse{
		CEP:       postal.Mask(addr.PostalCode),
		Street:    addr.Street,
		District:  addr.District,
		City:      addr.City,
		StateCode: addr.StateCode,
	})
}
