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
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

// WithMetricMeter registers observable OpenTelemetry counters and gauges
// against the given meter: cache.usage (hits/misses), cache.size
// (current unused/total size vs. the configured ceilings) and cache.files
// (total/unused file counts).
func WithMetricMeter(meter metric.Meter) Option {
	return func(c *Cache) {
		hits := attribute.String("type", "hits")
		misses := attribute.String("type", "misses")

		must(meter.Int64ObservableCounter("cache.usage",
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(c.stats.hits.Load(), metric.WithAttributes(hits))
				o.Observe(c.stats.misses.Load(), metric.WithAttributes(misses))

				return nil
			})))

		must(meter.Int64ObservableGauge("cache.size",
			metric.WithUnit("byte"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(c.totalSize.Load(), metric.WithAttributes(attribute.String("type", "total")))
				o.Observe(c.unusedSize.Load(), metric.WithAttributes(attribute.String("type", "unused")))
				o.Observe(c.unusedMax.Load(), metric.WithAttributes(attribute.String("type", "unused_max")))
				o.Observe(c.offlineMax.Load(), metric.WithAttributes(attribute.String("type", "offline_max")))

				return nil
			})))

		must(meter.Int64ObservableGauge("cache.files",
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(c.totalFiles.Load(), metric.WithAttributes(attribute.String("type", "total")))
				o.Observe(c.unusedFiles.Load(), metric.WithAttributes(attribute.String("type", "unused")))

				return nil
			})))
	}
}
