// Package domain contains the core domain types for the image labeler.
package domain

// Label is a detected image label whose confidence is a percentage (0-100).
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Request is the input to the image labeler.
type Request struct {
	ImageURL string `json:"imageUrl"`
}

// Response is the HTTP-shaped output of the image labeler.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// InternalServerErrorBody is the only body ever returned with a 500.
const InternalServerErrorBody = "Internal Server Error"
