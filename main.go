package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/geotoken/internal/app"
)

// @title           geotoken API
// @version         1.0
// @description     geotoken exchanges location-stamped tokens between producer and consumer sessions.
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
