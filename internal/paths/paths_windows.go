//go:build windows

package paths

import "golang.org/x/sys/windows"

func roamingAppData() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_RoamingAppData, 0)
}
