package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

// ICEServers turns configured URLs into the ICE server list handed to
// clients. Entries may carry credentials as "url|username|credential".
func ICEServers(urls []string) []webrtc.ICEServer {
	if len(urls) == 0 {
		urls = []string{DefaultSTUN}
	}
	out := make([]webrtc.ICEServer, 0, len(urls))
	for _, raw := range urls {
		parts := strings.SplitN(strings.TrimSpace(raw), "|", 3)
		if parts[0] == "" {
			continue
		}
		srv := webrtc.ICEServer{URLs: []string{parts[0]}}
		if len(parts) == 3 {
			srv.Username = parts[1]
			srv.Credential = parts[2]
		}
		out = append(out, srv)
	}
	return out
}

// Configuration is what a pion based client would use with the same servers.
func Configuration(urls []string) webrtc.Configuration {
	return webrtc.Configuration{ICEServers: ICEServers(urls)}
}
