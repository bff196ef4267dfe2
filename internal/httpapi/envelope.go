package httpapi

import (
	"strconv"

	"github.com/hwpriced/oracle/internal/common"
)

// envelopeRequest is the oracle-adapter convention request shape
// (spec.md §6): {id, data: {assetId|asset, ...}}.
type envelopeRequest struct {
	ID   interface{}            `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// envelopeSuccess is a successful envelope reply.
type envelopeSuccess struct {
	JobRunID   interface{}      `json:"jobRunID"`
	StatusCode int              `json:"statusCode"`
	Data       envelopeResult   `json:"data"`
}

type envelopeResult struct {
	Result      string  `json:"result"`
	Price       float64 `json:"price"`
	TWAP        float64 `json:"twap"`
	PriceInt    string  `json:"priceInt"`
	SourceCount int     `json:"sourceCount"`
	Timestamp   int64   `json:"timestamp"`
	AssetID     string  `json:"assetId"`
}

// envelopeError is a failed envelope reply; data is always absent.
type envelopeError struct {
	JobRunID   interface{} `json:"jobRunID"`
	StatusCode int         `json:"statusCode"`
	Error      string      `json:"error"`
}

// envelopeIDOrZero normalizes a missing/unparseable id to the literal
// string "0", matching spec.md S5's validation-failure example.
func envelopeIDOrZero(id interface{}) interface{} {
	if id == nil {
		return "0"
	}
	return id
}

func buildSuccessEnvelope(jobRunID interface{}, price common.AggregatedPrice) envelopeSuccess {
	priceIntStr := strconv.FormatInt(price.PriceInt, 10)
	return envelopeSuccess{
		JobRunID:   jobRunID,
		StatusCode: 200,
		Data: envelopeResult{
			Result:      priceIntStr,
			Price:       price.Price,
			TWAP:        price.TWAP,
			PriceInt:    priceIntStr,
			SourceCount: price.SourceCount,
			Timestamp:   price.Timestamp,
			AssetID:     price.AssetID,
		},
	}
}

func buildErrorEnvelope(jobRunID interface{}, statusCode int, message string) envelopeError {
	return envelopeError{JobRunID: envelopeIDOrZero(jobRunID), StatusCode: statusCode, Error: message}
}
