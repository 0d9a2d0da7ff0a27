package backend

import "slices"

// Capability represents a feature a backend can provide.
type Capability string

const (
	// CapabilityRename marks a native, atomic rename.
	CapabilityRename Capability = "rename"
	// CapabilityDirectories marks real directories instead of marker objects.
	CapabilityDirectories Capability = "directories"
	// CapabilityAtomicWrite marks writers that commit all-or-nothing on Close.
	CapabilityAtomicWrite Capability = "atomic_write"
	// CapabilityVersioning marks stores keeping previous object versions.
	CapabilityVersioning Capability = "versioning"
)

func GetAllCapabilities() *Capabilities {
	return &Capabilities{
		Capabilities: []Capability{
			CapabilityRename,
			CapabilityDirectories,
			CapabilityAtomicWrite,
			CapabilityVersioning,
		},
	}
}

// Capabilities describes what a backend supports.
type Capabilities struct {
	Capabilities  []Capability `json:"capabilities"`
	MaxObjectSize int64        `json:"max_object_size"`
}

// Contains checks if a capability is supported.
func (c *Capabilities) Contains(capability Capability) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Capabilities, capability)
}

// Without returns a copy lacking the given capabilities.
func (c *Capabilities) Without(capabilities ...Capability) *Capabilities {
	clone := &Capabilities{MaxObjectSize: c.MaxObjectSize}
	for _, capability := range c.Capabilities {
		if !slices.Contains(capabilities, capability) {
			clone.Capabilities = append(clone.Capabilities, capability)
		}
	}
	return clone
}
