package models

import "time"

// Submission is one client's document package. Its position in the
// submission store is its identifier.
type Submission struct {
	ClientInfo  map[string]any          `json:"dadosCliente"`
	Attachments map[string][]Attachment `json:"documentos"`
	SubmittedAt time.Time               `json:"dataEnvio"`
	OriginIP    string                  `json:"ip,omitempty"`
}

// Clone returns a copy that shares no maps or slices with s.
func (s Submission) Clone() Submission {
	out := s
	if s.ClientInfo != nil {
		out.ClientInfo = make(map[string]any, len(s.ClientInfo))
		for k, v := range s.ClientInfo {
			out.ClientInfo[k] = cloneValue(v)
		}
	}
	if s.Attachments != nil {
		out.Attachments = make(map[string][]Attachment, len(s.Attachments))
		for field, refs := range s.Attachments {
			out.Attachments[field] = append([]Attachment(nil), refs...)
		}
	}
	return out
}

// cloneValue copies the map and slice values produced by decoding JSON.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	default:
		return v
	}
}
