// Package config loads the settings of the restclient command line tool.
//
// Settings come from, in increasing priority: built-in defaults, a YAML or
// JSON file, RESTCLIENT_* environment variables, and command line flags
// (applied by the cli package). A missing file at the default location is
// not an error; a missing file that was named explicitly is.
//
// Example restclient config.yaml:
//
//	scratchDir: /var/tmp/restclient
//	maxEntrySize: 67108864
//	log:
//	  level: debug
//	  format: json
//	  file: /var/log/restclient.log
package config
