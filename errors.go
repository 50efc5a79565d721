package silexplorer

import "fmt"

// AuthError reports a failure of the authentication handshake, carrying the
// message the server returned when it had one and the HTTP status when the
// failure happened at that level.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
	}
	return "authentication failed: " + e.Message
}

// APIError reports a request the remote rejected, either at the HTTP level
// (Status is set) or inside a GraphQL error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
	}
	return "api request failed: " + e.Message
}
