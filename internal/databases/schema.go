// Package databases reads the databases file and builds the configured
// reputation stores.
package databases

import "github.com/MrSnakeDoc/urlinfo/internal/reputation"

// File is the root of the databases file:
//
//	databases:
//	  - type: dbm.dumb
//	    name: local
//	    options: {filename: unsafe.db, reload_time: 10}
type File struct {
	Databases []Entry
	// Dir is the directory relative file paths resolve against.
	Dir string
}

// Entry configures one store.
type Entry struct {
	Type    string             `yaml:"type" json:"type"`
	Name    string             `yaml:"name,omitempty" json:"name,omitempty"`
	Options reputation.Options `yaml:"options" json:"options"`
}

type rawFile struct {
	Databases *[]Entry `yaml:"databases"`
}
