package store

import "time"

// NotificationResponse is the audit record of one dispatch.
type NotificationResponse struct {
	ID               int64     `json:"id"`
	NotificationUUID string    `json:"notificationUuid"`
	NotificationName string    `json:"notificationName"`
	Method           string    `json:"method"`
	URI              string    `json:"uri"`
	Status           int       `json:"status"`
	Body             string    `json:"body,omitempty"`
	Error            string    `json:"error,omitempty"`
	Action           string    `json:"action"`
	PullRequestID    int64     `json:"pullRequestId"`
	DispatchedAt     time.Time `json:"dispatchedAt"`
}

// Failed reports whether the call did not happen or got a non 2xx answer.
func (r NotificationResponse) Failed() bool {
	return r.Error != "" || r.Status < 200 || r.Status > 299
}
