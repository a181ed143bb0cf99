package instance

import "os"

// GetID returns the identifier of this process for log correlation. Platform
// schedulers set EVDMS_INSTANCE_ID; bare hosts fall back to the hostname.
func GetID() string {
	if id := os.Getenv("EVDMS_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
