package version

import "fmt"

const (
	// AppName is the name of the application
	AppName = "httpd"

	// Version is the current version of the application
	Version = "0.1.0"

	// Description is a short description of the application
	Description = "Minimal connection-per-request HTTP server"
)

// GetVersionInfo returns a formatted string with the application name and version
func GetVersionInfo() string {
	return fmt.Sprintf("%s version %s", AppName, Version)
}
