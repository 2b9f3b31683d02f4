package jam

import (
	"errors"
	"fmt"
)

// ErrUnknownTier is returned for tier names outside device/fog/cloud.
var ErrUnknownTier = errors.New("unknown tier")

// Tier is an execution-location class.
type Tier int

const (
	Unspecified Tier = iota
	Device
	Fog
	Cloud
	// Invalid marks a declaration whose tier annotation could not be parsed.
	Invalid
)

var tierNames = map[Tier]string{
	Unspecified: "unspecified",
	Device:      "device",
	Fog:         "fog",
	Cloud:       "cloud",
	Invalid:     "invalid",
}

// Tiers lists the concrete tiers.
var Tiers = []Tier{Device, Fog, Cloud}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Specified reports whether t is one of device, fog or cloud.
func (t Tier) Specified() bool {
	return t == Device || t == Fog || t == Cloud
}

// ParseTier converts a tier name; an empty name yields Unspecified.
func ParseTier(name string) (Tier, error) {
	switch name {
	case "":
		return Unspecified, nil
	case "device":
		return Device, nil
	case "fog":
		return Fog, nil
	case "cloud":
		return Cloud, nil
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

// IsTierName reports whether name denotes a concrete tier.
func IsTierName(name string) bool {
	t, err := ParseTier(name)
	return err == nil && t.Specified()
}

// MarshalYAML writes the tier by name.
func (t Tier) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}
