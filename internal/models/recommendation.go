package models

import "time"

// Chat senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Recommendations is a personalized list. Items may come from either catalog.
type Recommendations struct {
	Recommendations []MovieRecord `json:"recommendations"`
	Count           int           `json:"count"`
}

// SimilarMovies lists movies related to a local movie.
type SimilarMovies struct {
	SimilarMovies []MovieRecord `json:"similar_movies"`
	Count         int           `json:"count"`
}

// ChatMessage is one line of the recommendation chat.
type ChatMessage struct {
	ID        int       `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatExchange is the user's message and the bot's reply.
type ChatExchange struct {
	UserMessage ChatMessage `json:"user_message"`
	BotResponse ChatMessage `json:"bot_response"`
}
