//go:build !windows

package paths

import "os"

func roamingAppData() (string, error) {
	if dir := os.Getenv("APPDATA"); dir != "" {
		return dir, nil
	}
	return "", errNoAppData
}
