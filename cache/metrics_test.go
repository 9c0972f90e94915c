// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cache

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/metric/metricdata/metricdatatest"
)

func TestCacheMetrics(t *testing.T) {
	t.Parallel()

	metricReader := metric.NewManualReader()
	meterProvider := metric.NewMeterProvider(metric.WithReader(metricReader))

	c, err := New("cachedir", "bin", nil,
		WithFilesystem(afero.NewMemMapFs()),
		WithUnusedMaxSize(100),
		WithOfflineMaxSize(50),
		WithMetricMeter(meterProvider.Meter("test")))
	require.NoError(t, err)

	h1, err := c.Write("key1", bytes.NewReader([]byte("x")), 1, nil)
	require.NoError(t, err)
	require.NoError(t, h1.Close())

	_, err = c.Get("key1")
	require.NoError(t, err)

	_, err = c.Get("missing")
	require.ErrorIs(t, err, ErrKeyDoesntExist)

	expected := metricdata.ScopeMetrics{
		Scope: instrumentation.Scope{Name: "test"},
		Metrics: []metricdata.Metrics{
			{
				Name: "cache.usage",
				Unit: "{count}",
				Data: metricdata.Sum[int64]{
					DataPoints: []metricdata.DataPoint[int64]{
						{Attributes: attribute.NewSet(attribute.String("type", "hits")), Value: 1},
						{Attributes: attribute.NewSet(attribute.String("type", "misses")), Value: 1},
					},
					Temporality: metricdata.CumulativeTemporality,
					IsMonotonic: true,
				},
			},
			{
				Name: "cache.size",
				Unit: "byte",
				Data: metricdata.Gauge[int64]{
					DataPoints: []metricdata.DataPoint[int64]{
						{Attributes: attribute.NewSet(attribute.String("type", "total")), Value: 1},
						{Attributes: attribute.NewSet(attribute.String("type", "unused")), Value: 1},
						{Attributes: attribute.NewSet(attribute.String("type", "unused_max")), Value: 100},
						{Attributes: attribute.NewSet(attribute.String("type", "offline_max")), Value: 50},
					},
				},
			},
			{
				Name: "cache.files",
				Unit: "{count}",
				Data: metricdata.Gauge[int64]{
					DataPoints: []metricdata.DataPoint[int64]{
						{Attributes: attribute.NewSet(attribute.String("type", "total")), Value: 1},
						{Attributes: attribute.NewSet(attribute.String("type", "unused")), Value: 1},
					},
				},
			},
		},
	}

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, metricReader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	metricdatatest.AssertEqual(t, expected, rm.ScopeMetrics[0], metricdatatest.IgnoreTimestamp())
}
