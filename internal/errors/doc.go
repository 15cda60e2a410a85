// Package errors provides structured, actionable error messages for the
// dropzone server and CLI.
//
// Errors carry a code from the registry, a category, and optionally the
// config file location that caused them and a hint on how to fix it.
//
// # Error Categories
//
//   - config: dropzone.yaml could not be read, parsed or validated
//   - storage: the upload store could not be selected or started
//   - server: the HTTP server failed to listen or shut down
//   - cli: bad command-line arguments
//
// # Usage
//
//	err := errors.New(errors.CodeConfigParse).
//	    WithLocationFromYAML("dropzone.yaml", yamlErr).
//	    Wrap(yamlErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Invalid configuration file
//	//
//	//   dropzone.yaml:3
//	//
//	//        1 │ upload:
//	//        2 │   accept:
//	//   →    3 │     - image/png
//	//        4 │   max_files: 3
//	//
//	//   dropzone.yaml must be a YAML (or JSON) document ...
package errors
