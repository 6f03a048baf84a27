package domain

// Estimation is the transient result of classifying, grading and pricing an
// image. It is never persisted on its own.
type Estimation struct {
	Condition       Condition `json:"condition"`
	ItemType        string    `json:"itemType"`
	EstimatedPoints int       `json:"estimatedPoints"`
	Confidence      int       `json:"confidence"`
	ImageURL        string    `json:"imageUrl"`
	Label           string    `json:"label"`
}
