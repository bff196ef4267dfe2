package history

import (
	"context"
	"encoding/json"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"
)

const hardwareTable = "hardware_price_history"
const rentalTable = "rental_price_history"

// SupabaseStore persists both series to a Supabase-backed Postgres
// instance via the REST client. A zero-value client (empty URL/key)
// reports Configured() == false and degrades to the no-op/503 contract
// spec.md §4.9 requires of an unconfigured store.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore builds a store. If url or key is empty, the returned
// store is a valid Store whose Configured() reports false.
func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	if url == "" || key == "" {
		return &SupabaseStore{}, nil
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("history: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Configured() bool { return s.client != nil }

func (s *SupabaseStore) InsertHardware(_ context.Context, assetID string, timestamp int64, price, twapValue float64, sourceCount int) error {
	if !s.Configured() {
		return nil
	}
	row := HardwareRecord{AssetID: assetID, Timestamp: timestamp, Price: price, TWAP: twapValue, SourceCount: sourceCount}
	_, _, err := s.client.From(hardwareTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("history: insert hardware record: %w", err)
	}
	return nil
}

func (s *SupabaseStore) RangeHardware(_ context.Context, q RangeQuery) ([]HardwareRecord, error) {
	if !s.Configured() {
		return nil, ErrUnconfigured{}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}

	builder := s.client.From(hardwareTable).Select("*", "", false)
	if q.SeriesKey != "" {
		builder = builder.Eq("asset_id", q.SeriesKey)
	}
	if q.StartTime > 0 {
		builder = builder.Gte("timestamp", fmt.Sprintf("%d", q.StartTime))
	}
	if q.EndTime > 0 {
		builder = builder.Lte("timestamp", fmt.Sprintf("%d", q.EndTime))
	}
	builder = builder.Order("timestamp", nil).Limit(limit, "")

	data, _, err := builder.Execute()
	if err != nil {
		return nil, fmt.Errorf("history: range query hardware: %w", err)
	}

	var records []HardwareRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("history: decode hardware rows: %w", err)
	}
	return records, nil
}

// HardwareStats is computed from the rows one RangeHardware call returns,
// so at most defaultRangeLimit rows are counted; rows beyond that limit
// are not included in Total, the oldest/newest times, or CountBySeries.
func (s *SupabaseStore) HardwareStats(ctx context.Context) (Stats, error) {
	if !s.Configured() {
		return Stats{}, ErrUnconfigured{}
	}
	records, err := s.RangeHardware(ctx, RangeQuery{Limit: defaultRangeLimit})
	if err != nil {
		return Stats{}, err
	}
	return statsFromHardware(records), nil
}

func (s *SupabaseStore) InsertRental(_ context.Context, gpuType string, timestamp int64, avgPrice, minPrice, maxPrice float64, offerCount int, interruptibleAvg, onDemandAvg float64) error {
	if !s.Configured() {
		return nil
	}
	row := RentalRecord{
		GPUType: gpuType, Timestamp: timestamp, AvgPrice: avgPrice, MinPrice: minPrice, MaxPrice: maxPrice,
		OfferCount: offerCount, InterruptibleAvg: interruptibleAvg, OnDemandAvg: onDemandAvg,
	}
	_, _, err := s.client.From(rentalTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("history: insert rental record: %w", err)
	}
	return nil
}

func (s *SupabaseStore) RangeRental(_ context.Context, q RangeQuery) ([]RentalRecord, error) {
	if !s.Configured() {
		return nil, ErrUnconfigured{}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}

	builder := s.client.From(rentalTable).Select("*", "", false)
	if q.SeriesKey != "" {
		builder = builder.Eq("gpu_type", q.SeriesKey)
	}
	if q.StartTime > 0 {
		builder = builder.Gte("timestamp", fmt.Sprintf("%d", q.StartTime))
	}
	if q.EndTime > 0 {
		builder = builder.Lte("timestamp", fmt.Sprintf("%d", q.EndTime))
	}
	builder = builder.Order("timestamp", nil).Limit(limit, "")

	data, _, err := builder.Execute()
	if err != nil {
		return nil, fmt.Errorf("history: range query rental: %w", err)
	}

	var records []RentalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("history: decode rental rows: %w", err)
	}
	return records, nil
}

// RentalStats is computed from the rows one RangeRental call returns, so
// at most defaultRangeLimit rows are counted; rows beyond that limit are
// not included in Total, the oldest/newest times, or CountBySeries.
func (s *SupabaseStore) RentalStats(ctx context.Context) (Stats, error) {
	if !s.Configured() {
		return Stats{}, ErrUnconfigured{}
	}
	records, err := s.RangeRental(ctx, RangeQuery{Limit: defaultRangeLimit})
	if err != nil {
		return Stats{}, err
	}
	return statsFromRental(records), nil
}

var _ Store = (*SupabaseStore)(nil)
