package gateway

// errorResponse is the normalized failure envelope.
type errorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// redirectResponse is the funds-guard insufficiency envelope, sent with
// HTTP 303 and a Location header.
type redirectResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirect_url"`
}

// healthResponse reports liveness and upstream reachability.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Upstream  string `json:"upstream"`
}
