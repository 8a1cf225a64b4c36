package radio

import (
	"context"
	"errors"
	"fmt"

	"github.com/detekto/cellwatch/internal/telephony"
)

// ModemSet presents several modems the way a dual-SIM phone presents its
// radios: the first modem is the default radio and every further modem is
// an active subscription.
type ModemSet struct {
	modems []*Modem
}

func NewModemSet(modems ...*Modem) (*ModemSet, error) {
	if len(modems) == 0 {
		return nil, errors.New("at least one modem is required")
	}

	return &ModemSet{modems: modems}, nil
}

func (s *ModemSet) Default() telephony.Radio {
	return s.modems[0]
}

func (s *ModemSet) ActiveSubscriptions(ctx context.Context) ([]telephony.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subs := make([]telephony.Subscription, 0, len(s.modems)-1)
	for i, m := range s.modems[1:] {
		subs = append(subs, telephony.Subscription{ID: i + 1, Name: m.Name()})
	}

	return subs, nil
}

func (s *ModemSet) RadioForSubscription(sub telephony.Subscription) (telephony.Radio, error) {
	if sub.ID < 1 || sub.ID >= len(s.modems) {
		return nil, fmt.Errorf("unknown subscription %d", sub.ID)
	}

	return s.modems[sub.ID], nil
}

func (s *ModemSet) Close() error {
	var errs []error
	for _, m := range s.modems {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close modem %s: %w", m.Name(), err))
		}
	}

	return errors.Join(errs...)
}
