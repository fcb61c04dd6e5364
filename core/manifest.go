package core

// ManifestEntry holds the metadata of one exported session page, used by the
// manifest file and the static index. It mirrors SessionSummary and pairs it
// with the relative link of the rendered page.
type ManifestEntry struct {
	SessionID      string `json:"session_id"`
	MessageCount   int    `json:"message_count"`
	FirstMessageID int64  `json:"first_message_id"`
	Href           string `json:"href"`
}

// NewManifestEntry pairs a session summary with the given href.
func NewManifestEntry(s SessionSummary, href string) ManifestEntry {
	return ManifestEntry{
		SessionID:      s.SessionID,
		MessageCount:   s.MessageCount,
		FirstMessageID: s.FirstMessageID,
		Href:           href,
	}
}

// Summary converts the entry back to the session summary it was built from.
func (e ManifestEntry) Summary() SessionSummary {
	return SessionSummary{
		SessionID:      e.SessionID,
		MessageCount:   e.MessageCount,
		FirstMessageID: e.FirstMessageID,
	}
}
