// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "github.com/mileusna/useragent"

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// Agent is the parsed form of a User-Agent header.
type Agent struct {
	Browser string
	OS      string
	Device  string
}

// ParseAgent breaks a User-Agent header into browser, OS and device class.
func ParseAgent(header string) Agent {
	if header == "" {
		return Agent{Browser: "Unknown", OS: "Unknown", Device: DeviceUnknown}
	}

	ua := useragent.Parse(header)
	a := Agent{Browser: ua.Name, OS: ua.OS}
	if a.Browser == "" {
		a.Browser = "Unknown"
	}
	if a.OS == "" {
		a.OS = "Unknown"
	}

	switch {
	case ua.Bot:
		a.Device = DeviceBot
	case ua.Tablet:
		a.Device = DeviceTablet
	case ua.Mobile:
		a.Device = DeviceMobile
	case ua.Desktop:
		a.Device = DeviceDesktop
	default:
		a.Device = DeviceUnknown
	}
	return a
}
