package server

import (
	"fmt"

	"talentlens/internal/utils"
)

// displayServerInfo prints startup information about the configured server
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.TLSConfig.Enabled() {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s:%s", scheme, s.Host, s.Port)

	fmt.Println("Available endpoints:")
	fmt.Printf("  POST   %s/session          - Upload a resume and start a review session\n", base)
	fmt.Printf("  GET    %s/session          - Get the current session snapshot\n", base)
	fmt.Printf("  DELETE %s/session          - Reset the session\n", base)
	fmt.Printf("  POST   %s/session/retry-chat - Retry chat initialization\n", base)
	fmt.Printf("  POST   %s/session/message  - Send a chat message about the resume\n", base)
	fmt.Printf("  POST   %s/session/profile  - Extract the candidate profile\n", base)
	fmt.Printf("  POST   %s/session/ats      - Run an ATS compatibility scan\n", base)
	fmt.Printf("  POST   %s/session/critique - Run a deep critique\n", base)
	fmt.Printf("  GET    %s/health           - Health check\n", base)
	fmt.Printf("  GET    %s/stats            - Server statistics\n", base)
	fmt.Println()

	if len(s.APIKeys) > 0 {
		fmt.Printf("Authentication: enabled (%d API keys)\n", len(s.APIKeys))
	} else {
		fmt.Println("Authentication: disabled")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: %d req/min (burst %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Println("Rate limiting: disabled")
	}

	fmt.Printf("Max upload size: %s\n", utils.FormatFileSize(s.MaxRequestSize))
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop the server")
}
