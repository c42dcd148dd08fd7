package api

// AddProcessRequest matches the POST /v1/processes body schema.
type AddProcessRequest struct {
	ProcessID string `json:"processId"`
	Priority  string `json:"priority,omitempty"` // low, medium, high
}

// AddResourceRequest matches the POST /v1/resources body schema.
type AddResourceRequest struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType,omitempty"`
}

// ResourceOpRequest matches the POST /v1/request, /v1/release and
// /debug/inject-wait body schemas.
type ResourceOpRequest struct {
	ProcessID  string `json:"processId"`
	ResourceID string `json:"resourceId"`
}

// RequestResponse matches the response for POST /v1/request.
type RequestResponse struct {
	Success   bool     `json:"success"`
	Allocated bool     `json:"allocated,omitempty"`
	Waiting   bool     `json:"waiting,omitempty"`
	Holder    string   `json:"holder,omitempty"`
	Prevented bool     `json:"prevented,omitempty"`
	Cycle     []string `json:"cycle,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// PredictResponse matches the response for POST /v1/predict.
type PredictResponse struct {
	Predictions interface{} `json:"predictions"`
	RiskLevel   string      `json:"riskLevel"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
