// Package config loads the dropzone server configuration.
//
// The configuration is stored in dropzone.yaml. JSON documents are accepted
// too, since YAML is a superset. Values missing from the file keep their
// defaults, and DROPZONE_PORT, DROPZONE_HOST and DROPZONE_STORAGE override
// the file.
//
// # Configuration File Structure
//
//	server:
//	  host: localhost
//	  port: 8080
//	  shutdown_timeout: 10s
//	upload:
//	  accept: images-and-pdf        # or {image/png: [.png]}
//	  max_file_size: 52428800
//	  max_files: 5
//	  multiple: true
//	  temp_expiry: 1h
//	  cleanup_interval: 10m
//	storage:
//	  driver: disk                  # disk, s3 or gcs
//	  dir: tmp/uploads
//	  bucket: ""
//	  prefix: uploads/
//	metrics:
//	  enabled: true
//	  path: /metrics
//	log:
//	  level: info                   # debug, info, warn, error
//	  format: text                  # text or json
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
