package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// NewDevice returns a Device with sensible defaults, suitable for test
// fixtures. Override individual fields via the With* options.
func NewDevice(opts ...func(*models.Device)) models.Device {
	now := time.Now().UTC()
	d := models.Device{
		ID:              uuid.New().String(),
		Name:            "test-device",
		NormalizedName:  "test-device",
		ManagementIP:    "192.168.1.100",
		DeviceType:      "cisco_ios",
		SourceSystem:    "discovery",
		FingerprintedAt: now,
		Timestamp:       now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithName sets both Name and NormalizedName (lowercased) on the device.
func WithName(name string) func(*models.Device) {
	return func(d *models.Device) {
		d.Name = name
		d.NormalizedName = models.NormalizeName(name)
	}
}

// WithManagementIP sets the device's management IP.
func WithManagementIP(ip string) func(*models.Device) {
	return func(d *models.Device) { d.ManagementIP = ip }
}

// WithDeviceType sets the device's normalized device_type.
func WithDeviceType(dt string) func(*models.Device) {
	return func(d *models.Device) { d.DeviceType = dt }
}

// WithSerial sets the device's serial number.
func WithSerial(serial string) func(*models.Device) {
	return func(d *models.Device) { d.Serial = serial }
}

// NewComponent returns a Component with sensible defaults for deviceID.
func NewComponent(deviceID string, opts ...func(*models.Component)) models.Component {
	c := models.Component{
		ID:       uuid.New().String(),
		DeviceID: deviceID,
		Name:     "Chassis",
		Type:     models.ComponentChassis,
		Position: "1",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewArpEntry returns an ArpEntry with sensible defaults for deviceID.
func NewArpEntry(deviceID string, opts ...func(*models.ArpEntry)) models.ArpEntry {
	e := models.ArpEntry{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		IPAddress:  "10.0.0.1",
		MACAddress: "aa:bb:cc:dd:ee:ff",
		CapturedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
