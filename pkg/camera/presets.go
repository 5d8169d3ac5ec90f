package camera

// Preset names for common resolutions.
const (
	PresetDefault = "default"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Presets returns all available preset constraints.
func Presets() map[string]Constraints {
	return map[string]Constraints{
		PresetDefault: DefaultConstraints(),
		Preset720p:    HD720Constraints(),
		Preset1080p:   HD1080Constraints(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, Preset720p, Preset1080p}
}

// GetPreset returns preset constraints by name, or nil if not found.
func GetPreset(name string) *Constraints {
	if c, ok := Presets()[name]; ok {
		return &c
	}
	return nil
}

// HD720Constraints requests 1280x720.
func HD720Constraints() Constraints {
	c := DefaultConstraints()
	c.Width = 1280
	c.Height = 720
	return c
}

// HD1080Constraints requests 1920x1080. More detail for the detector,
// larger uploads.
func HD1080Constraints() Constraints {
	c := DefaultConstraints()
	c.Width = 1920
	c.Height = 1080
	return c
}
