package api

// Request DTOs

// CreateThreadRequest is the create-thread form.
type CreateThreadRequest struct {
	Text string `json:"thread" validate:"required"`
}

// CreateCommentRequest is the comment form under a thread.
type CreateCommentRequest struct {
	Text string `json:"thread" validate:"required"`
}
