// Package config loads hello-web settings from YAML or JSON files.
//
// The file format is selected by extension (.yaml, .yml, .json). Fields left
// empty or zero keep their defaults, so a file only needs the values it
// changes:
//
//	server:
//	  address: 0.0.0.0:8080
//	  threads: 8
//	  shutdown_password: s3cret
//	metrics:
//	  address: 127.0.0.1:9100
//	log:
//	  level: debug
//
// Call Validate before converting with ToServerConfig.
package config
