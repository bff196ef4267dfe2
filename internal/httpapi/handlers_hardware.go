package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hwpriced/oracle/internal/catalog"
	"github.com/hwpriced/oracle/internal/common"
	"github.com/hwpriced/oracle/internal/history"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"timestamp":  common.NowMillis(),
			"assets":     catalog.HardwareAssetIDs(),
			"scraperApi": s.scraperAPIEnabled,
		})
	}
}

func (s *Server) handleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := s.aggregator.UpdateAllPrices(r.Context())

		type assetSummary struct {
			AssetID string                `json:"assetId"`
			Price   float64               `json:"price"`
			Sources []common.SourceDetail `json:"sources"`
		}
		assets := make([]assetSummary, 0, len(results))
		for _, res := range results {
			assets = append(assets, assetSummary{AssetID: res.AssetID, Price: res.Price.Price, Sources: res.Price.Sources})
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"updated": len(results),
			"assets":  assets,
		})
	}
}

func (s *Server) handleGetPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := s.aggregator.GetAllPrices()
		prices := make(map[string]map[string]interface{}, len(all))
		for assetID, p := range all {
			prices[assetID] = priceToJSON(p)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"prices":    prices,
			"timestamp": common.NowMillis(),
		})
	}
}

func priceToJSON(p common.AggregatedPrice) map[string]interface{} {
	return map[string]interface{}{
		"price":       p.Price,
		"twap":        p.TWAP,
		"priceInt":    strconv.FormatInt(p.PriceInt, 10),
		"sourceCount": p.SourceCount,
		"timestamp":   p.Timestamp,
		"currency":    p.Currency,
		"sources":     p.Sources,
	}
}

func (s *Server) handleGetPrice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := mux.Vars(r)["assetId"]
		if !catalog.IsHardwareAsset(assetID) {
			writeError(w, http.StatusBadRequest, "unknown asset id")
			return
		}
		price, ok := s.aggregator.GetPrice(assetID)
		if !ok {
			writeError(w, http.StatusNotFound, "no price available yet")
			return
		}
		writeJSON(w, http.StatusOK, priceToJSON(price))
	}
}

func (s *Server) handlePostPrice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req envelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
			writeJSON(w, http.StatusOK, buildErrorEnvelope(nil, http.StatusBadRequest, "Invalid request format"))
			return
		}

		assetID := extractAssetID(req.Data)
		if assetID == "" || !catalog.IsHardwareAsset(assetID) {
			writeJSON(w, http.StatusOK, buildErrorEnvelope(req.ID, http.StatusBadRequest, "unknown or missing asset id"))
			return
		}

		price, ok := s.aggregator.GetPrice(assetID)
		if !ok {
			writeJSON(w, http.StatusOK, buildErrorEnvelope(req.ID, http.StatusNotFound, "no price available yet"))
			return
		}

		writeJSON(w, http.StatusOK, buildSuccessEnvelope(req.ID, price))
	}
}

func (s *Server) handlePostPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req envelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
			writeJSON(w, http.StatusOK, buildErrorEnvelope(nil, http.StatusBadRequest, "Invalid request format"))
			return
		}

		assetIDs := extractAssetIDs(req.Data)
		if len(assetIDs) == 0 {
			assetIDs = catalog.HardwareAssetIDs()
		}

		results := make(map[string]interface{}, len(assetIDs))
		for _, assetID := range assetIDs {
			if !catalog.IsHardwareAsset(assetID) {
				writeJSON(w, http.StatusOK, buildErrorEnvelope(req.ID, http.StatusBadRequest, "unknown asset id: "+assetID))
				return
			}
			if price, ok := s.aggregator.GetPrice(assetID); ok {
				results[assetID] = buildSuccessEnvelope(req.ID, price).Data
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"jobRunID":   envelopeIDOrZero(req.ID),
			"statusCode": 200,
			"data":       map[string]interface{}{"results": results},
		})
	}
}

func extractAssetID(data map[string]interface{}) string {
	if v, ok := data["assetId"].(string); ok && v != "" {
		return v
	}
	if v, ok := data["asset"].(string); ok && v != "" {
		return v
	}
	return ""
}

func extractAssetIDs(data map[string]interface{}) []string {
	var ids []string
	for _, key := range []string{"assets", "assetIds"} {
		raw, ok := data[key].([]interface{})
		if !ok {
			continue
		}
		for _, v := range raw {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids
}

func (s *Server) handleHardwareHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.hardwareHistory.Configured() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []interface{}{}})
			return
		}

		q := parseRangeQuery(r, "assetId")
		records, err := s.hardwareHistory.RangeHardware(r.Context(), q)
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

func parseRangeQuery(r *http.Request, seriesKeyParam string) history.RangeQuery {
	q := r.URL.Query()
	rangeQuery := history.RangeQuery{SeriesKey: q.Get(seriesKeyParam)}
	if v, err := strconv.ParseInt(q.Get("startTime"), 10, 64); err == nil {
		rangeQuery.StartTime = v
	}
	if v, err := strconv.ParseInt(q.Get("endTime"), 10, 64); err == nil {
		rangeQuery.EndTime = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		rangeQuery.Limit = v
	} else {
		rangeQuery.Limit = 1000
	}
	return rangeQuery
}
