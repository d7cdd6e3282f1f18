package common

import (
	"fmt"
	"os"
	"strconv"
)

func GetEnvString(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		SysError(fmt.Sprintf("invalid value %q for %s, using default %d", v, key, defaultValue))
		return defaultValue
	}
	return i
}

func GetEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		SysError(fmt.Sprintf("invalid value %q for %s, using default %v", v, key, defaultValue))
		return defaultValue
	}
	return b
}
