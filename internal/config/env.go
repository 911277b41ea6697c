package config

import "os"

// lookupEnv is replaced in tests.
var lookupEnv = os.Getenv
