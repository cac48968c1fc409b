package config

import "log"

// MustNonEmpty stops the process when a required key is missing.
func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	MustNonEmpty(string(value), envName)
}
