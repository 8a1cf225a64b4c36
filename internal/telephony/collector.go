package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Collector gathers raw cells from the default radio and every active
// subscription's radio.
type Collector struct {
	permissions   PermissionChecker
	radio         Radio
	subscriptions SubscriptionManager
	logger        *slog.Logger
}

// NewCollector wires the platform handles. subscriptions may be nil on
// single-radio hosts.
func NewCollector(permissions PermissionChecker, radio Radio, subscriptions SubscriptionManager, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default().With("component", "telephony.collector")
	}

	return &Collector{
		permissions:   permissions,
		radio:         radio,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// CollectRawMeasurements returns every cell the radios report. Without the
// location grant no radio is touched. Access-denied errors count as zero
// cells. A failing subscription radio only loses its own cells; other errors
// from the default radio or the subscription listing are returned.
func (c *Collector) CollectRawMeasurements(ctx context.Context) ([]Cell, error) {
	if !c.permissions.HasFineLocation() {
		c.logger.Debug("fine location not granted, skipping collection")

		return []Cell{}, nil
	}

	out := make([]Cell, 0, 16)
	cells, err := c.query(ctx, c.radio)
	if err != nil {
		return nil, err
	}
	out = append(out, cells...)

	if c.subscriptions == nil || !c.permissions.HasReadPhoneState() {
		return out, nil
	}

	subs, err := c.subscriptions.ActiveSubscriptions(ctx)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			c.logger.Debug("subscription listing denied", "error", err)

			return out, nil
		}

		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	for _, sub := range subs {
		radio, err := c.subscriptions.RadioForSubscription(sub)
		if err != nil {
			if errors.Is(err, ErrAccessDenied) {
				c.logger.Debug("subscription radio denied", "subscription", sub.ID, "error", err)

				continue
			}

			c.logger.Warn("subscription radio unavailable, skipping", "subscription", sub.ID, "error", err)

			continue
		}
		cells, err := c.query(ctx, radio)
		if err != nil {
			c.logger.Warn("subscription radio failed, skipping", "subscription", sub.ID, "radio", radio.Name(), "error", err)

			continue
		}
		out = append(out, cells...)
	}

	return out, nil
}

func (c *Collector) query(ctx context.Context, radio Radio) ([]Cell, error) {
	if radio == nil {
		return nil, nil
	}
	cells, err := radio.AllCellInfo(ctx)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			c.logger.Debug("radio access denied", "radio", radio.Name(), "error", err)

			return nil, nil
		}

		return nil, fmt.Errorf("query radio %s: %w", radio.Name(), err)
	}

	return cells, nil
}
