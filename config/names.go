package config

import (
	"os"
	"strings"
	"unicode/utf8"
)

// Longest file name most file systems accept, in bytes.
const maxNameBytes = 255

const badFileName = "_bad_file_name_"

// finishName trims surrounding spaces and leading dots and limits length of
// already filtered name.
func finishName(name string) string {
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	for len(name) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return badFileName
	}
	return name
}

// colorDisabled reports user request to avoid colored console output.
func colorDisabled() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
