package market

import "context"

// DatasetSource loads the full ZIP to market dataset.
type DatasetSource interface {
	LoadRecords(ctx context.Context) ([]GeoRecord, error)
}
