package usbcam

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sys/unix"
)

// DeviceIdentity names one capture node found by ListDevices.
type DeviceIdentity struct {
	Path        string
	DisplayName string
}

// System is the entry point to the device namespace. Dir is scanned for
// capture nodes and Open is used for every descriptor the package opens.
type System struct {
	Dir  string
	Open Opener
}

// DefaultSystem scans /dev and opens real V4L2 nodes.
var DefaultSystem = &System{Dir: VIDEO4LINUX_DIR, Open: OpenDevice}

var videoNodePattern = regexp.MustCompile(`^video([0-9]+)$`)

// ListDevices lists the capture nodes of the default system.
func ListDevices() []DeviceIdentity {
	return DefaultSystem.ListDevices()
}

// ListDevices scans s.Dir for videoN nodes that answer a capability query.
// Nodes that cannot be opened or queried are skipped. It never fails: an
// unreadable directory yields an empty list.
func (s *System) ListDevices() []DeviceIdentity {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		logf("[enum] scan %s: %v", s.Dir, err)
		return []DeviceIdentity{}
	}

	type node struct {
		path string
		num  int
	}
	var nodes []node
	for _, e := range entries {
		m := videoNodePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		nodes = append(nodes, node{path: filepath.Join(s.Dir, e.Name()), num: n})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].num < nodes[j].num })

	devices := []DeviceIdentity{}
	for _, n := range nodes {
		id, ok := s.identify(n.path)
		if ok {
			devices = append(devices, id)
		}
	}
	return devices
}

func (s *System) identify(path string) (DeviceIdentity, bool) {
	dev, err := s.Open(path, unix.O_RDWR|unix.O_NONBLOCK)
	if err != nil {
		logf("[enum] %v", &StreamError{Device: path, Op: "open", Kind: ErrDeviceOpen, Err: err})
		return DeviceIdentity{}, false
	}
	defer closeDevice(dev, path)

	caps, err := dev.Capability()
	if err != nil {
		logf("[enum] %v", &StreamError{Device: path, Op: "query capabilities", Kind: ErrCapabilityQuery, Err: err})
		return DeviceIdentity{}, false
	}
	return DeviceIdentity{Path: path, DisplayName: caps.Card}, true
}

func closeDevice(dev Device, path string) {
	if err := dev.Close(); err != nil {
		logf("close %s: %v", path, err)
	}
}
