package dto

// ManagerCommentRequest payload for POST /manager/tickets/:id/comment.
type ManagerCommentRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// ManagerStatusRequest payload for POST /manager/tickets/:id/status.
type ManagerStatusRequest struct {
	Status string `json:"status"`
}
