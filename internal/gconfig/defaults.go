package gconfig

// ApplyDefaults fills in the fields the wire format allows to be omitted,
// mirroring the serde `#[serde(default = "...")]` attributes on the
// original record. Call once after unmarshaling a payload.
func (c *GameConfig) ApplyDefaults() {
	if c.Environment.Gamescope.UpscaleMethod == "" {
		c.Environment.Gamescope.UpscaleMethod = "fsr"
	}
	if c.Environment.Gamescope.WindowType == "" {
		c.Environment.Gamescope.WindowType = "fullscreen"
	}
	if c.Winecfg.MimeAssociations.State == "" {
		c.Winecfg.MimeAssociations = WinecfgFeaturePolicy{State: OptionalOff}
	}
	if c.Environment.CustomVars == nil {
		c.Environment.CustomVars = map[string]string{}
	}
}

// CompactExeHashKey returns the filesystem-safe short key derived from a
// full exe_hash: the first 16 lowercase hex characters. Used for both the
// override store (C8) and the instance lock (C9) paths, resolving the
// compact-key collision question by keeping enough entropy (64 bits) that
// collisions across distinct titles are not a practical concern.
func CompactExeHashKey(exeHash string) string {
	if len(exeHash) <= 16 {
		return exeHash
	}
	return exeHash[:16]
}
