package models

// Room is one exam room with a caller-defined position in the fill order.
type Room struct {
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

// Seat is a single cell in a slot's seat pool. Room carries the display label
// ("Room 2 (3B)"), which stays unique even when two rooms share a base label.
type Seat struct {
	Room   string `json:"room"`
	Number int    `json:"number"`
}
