// Package metrics exposes Prometheus counters for protocol anomalies that
// are deliberately non-fatal: decode fallbacks, skipped tile sections, and
// silently dropped updates that would otherwise vanish without trace.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "grotto"

var (
	// DecodeFallbacks counts messages that degraded to the raw fallback,
	// by reason ("unknown_type" or "malformed").
	DecodeFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "decode_fallbacks_total",
		Help:      "Messages that decoded to the raw fallback record.",
	}, []string{"reason"})

	// TileSections counts tile-section decode outcomes, by result
	// ("ok", "degraded" or "failed").
	TileSections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tiles",
		Name:      "sections_total",
		Help:      "Tile section decode outcomes.",
	}, []string{"result"})

	// ItemOwnerDrops counts item-owner updates that referenced an unknown
	// item slot and were dropped. A nonzero rate signals the ordering
	// hazard where ownership arrives before the full item update.
	ItemOwnerDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "item_owner_drops_total",
		Help:      "Item owner updates dropped because the slot was unknown.",
	})

	// TeleportAcks counts acknowledged teleport cycles.
	TeleportAcks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "teleport_acks_total",
		Help:      "Teleport request/acknowledge cycles completed.",
	})
)
