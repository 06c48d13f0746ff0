// Package config handles configuration loading for faqmy-server.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${FAQMY_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  token_lifetime: "24h"
//	bot:
//	  timeout: "60s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # Dashboard and widget API
//
// Database:
//
//	database:
//	  path: "/var/lib/faqmy/faqmy.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${FAQMY_JWT_SECRET}"  # Required
//	  token_lifetime: "24h"
//
// Answering engine:
//
//	bot:
//	  url: "http://localhost:9200"
//	  timeout: "60s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/faqmy/server.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
