package dto

// ApiCallMessage is published on the telemetry topic for every handled request.
type ApiCallMessage struct {
	Event string `json:"event"`
}
