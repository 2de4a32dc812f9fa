package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var rearFacing = regexp.MustCompile(`(?i)back|rear|environment`)

// Device is one capture source. Each device drops its frames into its own
// directory under the frames root.
type Device struct {
	ID   string
	Path string
}

// ListDevices resolves the devices under root. Rear-facing devices sort
// first, the rest by name.
func ListDevices(root string) ([]Device, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevices, err)
	}
	var devices []Device
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		devices = append(devices, Device{ID: e.Name(), Path: filepath.Join(root, e.Name())})
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoDevices, root)
	}
	sort.SliceStable(devices, func(i, j int) bool {
		ri, rj := rearFacing.MatchString(devices[i].ID), rearFacing.MatchString(devices[j].ID)
		if ri != rj {
			return ri
		}
		return devices[i].ID < devices[j].ID
	})
	return devices, nil
}
