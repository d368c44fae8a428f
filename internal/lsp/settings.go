package lsp

import (
	"encoding/json"
	"time"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("bad configuration payload", "err", err)
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings takes the "surge" section of the client's configuration.
// Missing keys leave the current value alone.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn("bad settings", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := settings.Surge.MaxDiagnostics; v != nil && *v > 0 {
		s.maxDiagnostics = *v
	}
	if v := settings.Surge.DebounceMs; v != nil && *v >= 0 {
		s.debounce = time.Duration(*v) * time.Millisecond
	}
}
