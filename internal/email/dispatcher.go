// Package email renders notification emails and delivers them, subject to
// each recipient's per-type preferences.
package email

import (
	"context"

	"github.com/google/uuid"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
	"github.com/shinyyama/centace-backend/internal/model"
)

type ProfileLookup interface {
	Get(ctx context.Context, userUID string) (*model.Profile, error)
}

type PreferenceLookup interface {
	Get(ctx context.Context, userUID string) (*model.EmailPreference, error)
}

type Dispatcher struct {
	profiles  ProfileLookup
	prefs     PreferenceLookup
	renderer  *Renderer
	transport Transport
}

func NewDispatcher(profiles ProfileLookup, prefs PreferenceLookup, renderer *Renderer, transport Transport) *Dispatcher {
	return &Dispatcher{profiles: profiles, prefs: prefs, renderer: renderer, transport: transport}
}

// Dispatch sends at most one email for n and reports whether it went out.
// Every failure is logged and reported as false; nothing propagates to the
// caller, including panics from the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) (sent bool) {
	log := logging.Ctx(ctx).With().
		Str("dispatch_id", uuid.NewString()).
		Uint64("notification_id", n.ID).
		Str("uid", n.UserUID).
		Str("type", string(n.Type)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("email: dispatch panicked")
			metrics.EmailDispatch.WithLabelValues(metrics.OutcomeFailed).Inc()
			sent = false
		}
	}()

	profile, err := d.profiles.Get(ctx, n.UserUID)
	if err != nil || profile == nil || profile.Email == "" {
		log.Info().Err(err).Msg("email: no recipient address")
		metrics.EmailDispatch.WithLabelValues(metrics.OutcomeNoRecipient).Inc()
		return false
	}

	row, err := d.prefs.Get(ctx, n.UserUID)
	if err != nil {
		log.Warn().Err(err).Msg("email: preference lookup failed, using defaults")
		row = nil
	}
	if !model.ResolveEmailPreferences(row).Allows(string(n.Type)) {
		log.Info().Msg("email: suppressed by preference")
		metrics.EmailDispatch.WithLabelValues(metrics.OutcomeSuppressed).Inc()
		return false
	}

	content, err := d.renderer.Render(n, profile.FullName)
	if err != nil {
		log.Error().Err(err).Msg("email: render failed")
		metrics.EmailDispatch.WithLabelValues(metrics.OutcomeFailed).Inc()
		return false
	}

	if err := d.transport.Send(ctx, Message{
		To:      profile.Email,
		ToName:  profile.FullName,
		Subject: content.Subject,
		HTML:    content.HTML,
		Text:    content.Text,
	}); err != nil {
		log.Error().Err(err).Msg("email: send failed")
		metrics.EmailDispatch.WithLabelValues(metrics.OutcomeFailed).Inc()
		return false
	}

	log.Info().Str("subject", content.Subject).Msg("email: sent")
	metrics.EmailDispatch.WithLabelValues(metrics.OutcomeSent).Inc()
	return true
}
