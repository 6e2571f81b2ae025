package types

import "time"

// RecommendationMessage is the queue payload published after each scheduled
// commute check. Consumers (chat bots, mail workers) render Text directly or
// use the structured Recommendation.
type RecommendationMessage struct {
	MessageID      string         `json:"message_id"`
	TraceID        string         `json:"trace_id,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
	HomeAddress    string         `json:"home_address"`
	WorkAddress    string         `json:"work_address"`
	Recommendation Recommendation `json:"recommendation"`
	Text           string         `json:"text"`
}
