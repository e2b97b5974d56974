package rtc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

var ErrMalformedPayload = errors.New("malformed negotiation payload")

// CheckPayload verifies that an offer/answer decodes as a session description
// of the matching type and that a candidate decodes as an ICE candidate. It
// never rewrites the payload.
func CheckPayload(kind string, payload json.RawMessage) error {
	switch kind {
	case "offer", "answer":
		var sd webrtc.SessionDescription
		if err := json.Unmarshal(payload, &sd); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		if sd.SDP == "" {
			return fmt.Errorf("%w: empty sdp", ErrMalformedPayload)
		}
		if sd.Type.String() != kind {
			return fmt.Errorf("%w: type %q in %s", ErrMalformedPayload, sd.Type.String(), kind)
		}
		return nil
	case "ice-candidate":
		var ci webrtc.ICECandidateInit
		if err := json.Unmarshal(payload, &ci); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedPayload, kind)
	}
}
