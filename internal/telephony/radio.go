package telephony

import (
	"context"
	"errors"
)

// ErrAccessDenied is returned by a radio or subscription listing when the
// caller lacks the grant to read it. Collection treats it as zero cells.
var ErrAccessDenied = errors.New("telephony access denied")

// PermissionChecker reports the runtime grants cell collection depends on.
type PermissionChecker interface {
	HasFineLocation() bool
	HasReadPhoneState() bool
}

// Radio is one source of cell measurements.
type Radio interface {
	Name() string
	AllCellInfo(ctx context.Context) ([]Cell, error)
}

// Subscription is one active SIM.
type Subscription struct {
	ID   int
	Name string
}

// SubscriptionManager lists active SIMs and hands out a radio scoped to each.
type SubscriptionManager interface {
	ActiveSubscriptions(ctx context.Context) ([]Subscription, error)
	RadioForSubscription(sub Subscription) (Radio, error)
}

// StaticPermissions is a fixed grant set.
type StaticPermissions struct {
	FineLocation   bool
	ReadPhoneState bool
}

func (p StaticPermissions) HasFineLocation() bool   { return p.FineLocation }
func (p StaticPermissions) HasReadPhoneState() bool { return p.ReadPhoneState }
