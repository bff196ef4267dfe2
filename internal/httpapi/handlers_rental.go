package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/history"
	"github.com/hwpriced/oracle/internal/rental"
)

func (s *Server) handleRentalTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"types": catalog.RentalTypeIDs()})
	}
}

func (s *Server) handleRentalPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, cached, err := s.rentalService.AllPrices(r.Context(), catalog.RentalTypeIDs())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch rental prices")
			return
		}

		if !cached {
			go s.persistRentalSnapshot(snapshot)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"prices":    snapshot.Stats,
			"cached":    cached,
			"source":    snapshot.Source,
			"timestamp": snapshot.Timestamp,
		})
	}
}

// persistRentalSnapshot appends one history record per GPU type; failures
// are logged and never surfaced to the request that triggered them
// (spec.md §4.8, §4.11).
func (s *Server) persistRentalSnapshot(snapshot rental.Snapshot) {
	ctx := context.Background()
	for gpuType, stats := range snapshot.Stats {
		err := s.rentalHistory.InsertRental(ctx, gpuType, stats.Timestamp, stats.AvgPrice, stats.MinPrice, stats.MaxPrice,
			stats.OfferCount, stats.InterruptibleAvg, stats.OnDemandAvg)
		if err != nil {
			s.logger.Warn("rental history insert failed", "gpuType", gpuType, "error", err)
		}
	}
}

func (s *Server) handleRentalPriceByType() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gpuType := mux.Vars(r)["gpuType"]
		if !catalog.IsRentalType(gpuType) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":      "unknown rental type",
				"validTypes": catalog.RentalTypeIDs(),
			})
			return
		}

		snapshot, _, err := s.rentalService.AllPrices(r.Context(), catalog.RentalTypeIDs())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch rental prices")
			return
		}
		stats, ok := snapshot.Stats[gpuType]
		if !ok {
			writeError(w, http.StatusNotFound, "no rental price available yet")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleRentalOffers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gpuType := mux.Vars(r)["gpuType"]
		if !catalog.IsRentalType(gpuType) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":      "unknown rental type",
				"validTypes": catalog.RentalTypeIDs(),
			})
			return
		}

		offers, fellBack, err := s.rentalService.Offers(r.Context(), gpuType)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch rental offers")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"gpuType":  gpuType,
			"offers":   offers,
			"fallback": fellBack,
		})
	}
}

func (s *Server) handleRentalHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rentalHistory.Configured() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []interface{}{}})
			return
		}
		q := parseRangeQuery(r, "gpuType")
		records, err := s.rentalHistory.RangeRental(r.Context(), q)
		if err != nil {
			if _, unconfigured := err.(history.ErrUnconfigured); unconfigured {
				writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []interface{}{}})
				return
			}
			writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
	}
}

func (s *Server) handleRentalHistoryStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rentalHistory.Configured() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []interface{}{}})
			return
		}
		stats, err := s.rentalHistory.RentalStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "history stats query failed")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
