package domain

import "time"

type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Emotion   string    `json:"emotion"`
	CreatedAt time.Time `json:"created_at"`
}
