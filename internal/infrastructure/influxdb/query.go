package influxdb

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxTrendPoints caps a single trend query.
const maxTrendPoints = 5000

// TrendPoint is one recorded numeric value of a property.
type TrendPoint struct {
	Time  time.Time `json:"time"`
	Value int64     `json:"value"`
}

// QueryPropertyTrend returns the numeric values recorded for one property
// over the last since, oldest first. Mode properties have no numeric form
// and always return an empty slice.
func (c *Client) QueryPropertyTrend(ctx context.Context, cameraID, property string, since time.Duration) ([]TrendPoint, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if since <= 0 {
		return nil, errors.New("influxdb: trend range must be positive")
	}

	result, err := c.client.QueryAPI(c.cfg.Org).Query(ctx, trendQuery(c.cfg.Bucket, cameraID, property, since))
	if err != nil {
		return nil, fmt.Errorf("querying trend: %w", err)
	}
	defer result.Close()

	points := []TrendPoint{}
	for result.Next() {
		rec := result.Record()
		v, ok := rec.Value().(int64)
		if !ok {
			continue
		}
		points = append(points, TrendPoint{Time: rec.Time(), Value: v})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("reading trend: %w", err)
	}
	return points, nil
}

// trendQuery builds the Flux query for QueryPropertyTrend. String operands
// are quoted with Go escaping, which Flux string literals accept.
func trendQuery(bucket, cameraID, property string, since time.Duration) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == %q and r._field == "numeric")
  |> filter(fn: (r) => r.camera_id == %q and r.property == %q)
  |> sort(columns: ["_time"])
  |> limit(n: %d)`,
		bucket, int64(since.Seconds()), MeasurementProperty, cameraID, property, maxTrendPoints)
}
