package signal

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards offer, answer and ice-candidate frames. The server
// never terminates media; it only passes negotiation between browsers.
func (ctl *SignalWSController) handleRelay(sid domain.SessionID, kind string, data []byte) error {
	to, payload, err := protocol.DecodeNegotiation(kind, data)
	if err != nil {
		return err
	}
	if ctl.opts.ValidatePayloads {
		if err := rtc.CheckPayload(kind, payload); err != nil {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("kind", kind).Msg("payload rejected")
			return fmt.Errorf("%w: %w", domain.ErrBadPayload, err)
		}
	}
	return ctl.Orch.Relay(sid, kind, to, payload)
}
