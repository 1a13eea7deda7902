package render

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// SystemInfo describes the machine the configuration was generated on
type SystemInfo struct {
	Hostname string
	Platform string
}

// CollectSystemInfo reads the host name and platform
func CollectSystemInfo() (SystemInfo, error) {
	info, err := host.Info()
	if err != nil {
		return SystemInfo{}, fmt.Errorf("failed to get host info: %w", err)
	}

	platform := strings.Join(strings.Fields(strings.Join([]string{
		info.Platform, info.PlatformVersion, info.KernelArch,
	}, " ")), " ")
	if platform == "" {
		platform = info.OS
	}

	return SystemInfo{
		Hostname: info.Hostname,
		Platform: platform,
	}, nil
}
