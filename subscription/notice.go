package subscription

// Notice tells listeners that a user's workspace changed. It carries no
// entity data; receivers read the current snapshot themselves.
type Notice struct {
	UserID string `json:"userId"`
	Family string `json:"family"`
	Kind   string `json:"kind"`
}
