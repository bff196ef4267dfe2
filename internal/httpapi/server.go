// Package httpapi implements the oracle's HTTP surface: the convenience
// JSON API, the oracle-adapter envelope endpoints, and the rental
// sub-API, routed with gorilla/mux and wrapped with rs/cors.
package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/hwpriced/oracle/internal/aggregator"
	"github.com/hwpriced/oracle/internal/history"
	"github.com/hwpriced/oracle/internal/rental"
)

// Server wires the aggregator, rental service, and history stores behind
// gorilla/mux routes (spec.md §4.7-§4.8).
type Server struct {
	router            *mux.Router
	aggregator        *aggregator.Aggregator
	rentalService     *rental.Service
	hardwareHistory   history.HardwareStore
	rentalHistory     history.RentalStore
	scraperAPIEnabled bool
	corsOrigins       []string
	logger            *slog.Logger
}

// New builds a Server and registers every route.
func New(agg *aggregator.Aggregator, rentalService *rental.Service, hardwareHistory history.HardwareStore, rentalHistory history.RentalStore, scraperAPIEnabled bool, corsOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:            mux.NewRouter(),
		aggregator:        agg,
		rentalService:     rentalService,
		hardwareHistory:   hardwareHistory,
		rentalHistory:     rentalHistory,
		scraperAPIEnabled: scraperAPIEnabled,
		corsOrigins:       corsOrigins,
		logger:            logger,
	}
	s.routes()
	return s
}

// Handler returns the CORS-wrapped router ready to pass to http.Server.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Error("http handler panicked", "path", r.URL.Path, "recover", rec, "stack", string(debug.Stack()))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	})

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/refresh", s.handleRefresh()).Methods(http.MethodPost)
	s.router.HandleFunc("/prices", s.handleGetPrices()).Methods(http.MethodGet)
	s.router.HandleFunc("/price/{assetId}", s.handleGetPrice()).Methods(http.MethodGet)
	s.router.HandleFunc("/price", s.handlePostPrice()).Methods(http.MethodPost)
	s.router.HandleFunc("/prices", s.handlePostPrices()).Methods(http.MethodPost)
	s.router.HandleFunc("/prices/history", s.handleHardwareHistory()).Methods(http.MethodGet)

	s.router.HandleFunc("/rental/types", s.handleRentalTypes()).Methods(http.MethodGet)
	s.router.HandleFunc("/rental/prices", s.handleRentalPrices()).Methods(http.MethodGet)
	s.router.HandleFunc("/rental/prices/{gpuType}", s.handleRentalPriceByType()).Methods(http.MethodGet)
	s.router.HandleFunc("/rental/offers/{gpuType}", s.handleRentalOffers()).Methods(http.MethodGet)
	s.router.HandleFunc("/rental/history", s.handleRentalHistory()).Methods(http.MethodGet)
	s.router.HandleFunc("/rental/history/stats", s.handleRentalHistoryStats()).Methods(http.MethodGet)
}
