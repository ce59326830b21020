package gconfig

// GameConfig is the record embedded in a launcher's trailer payload (C1).
type GameConfig struct {
	ConfigVersion            uint32               `json:"config_version"`
	CreatedBy                string               `json:"created_by"`
	GameName                 string               `json:"game_name"`
	ExeHash                  string               `json:"exe_hash"`
	RelativeExePath          string               `json:"relative_exe_path"`
	LaunchArgs               []string             `json:"launch_args"`
	Runner                   RunnerConfig         `json:"runner"`
	Environment              EnvConfig            `json:"environment"`
	Compatibility            CompatibilityConfig  `json:"compatibility"`
	Winecfg                  WinecfgConfig        `json:"winecfg"`
	Dependencies             []string             `json:"dependencies"`
	ExtraSystemDependencies  []SystemDependency   `json:"extra_system_dependencies"`
	Requirements             RequirementsConfig   `json:"requirements"`
	RegistryKeys             []RegistryKey        `json:"registry_keys"`
	IntegrityFiles           []string             `json:"integrity_files"`
	FolderMounts             []FolderMount        `json:"folder_mounts"`
	Scripts                  ScriptsConfig        `json:"scripts"`
}

type RuntimePreference string

const (
	PreferenceAuto   RuntimePreference = "Auto"
	PreferenceProton RuntimePreference = "Proton"
	PreferenceWine   RuntimePreference = "Wine"
)

type RunnerConfig struct {
	ProtonVersion     string            `json:"proton_version"`
	AutoUpdate        bool              `json:"auto_update"`
	Esync             bool              `json:"esync"`
	Fsync             bool              `json:"fsync"`
	RuntimePreference RuntimePreference `json:"runtime_preference"`
}

type GamescopeConfig struct {
	State              FeatureState `json:"state"`
	Resolution         *string      `json:"resolution"`
	Fsr                bool         `json:"fsr"`
	GameWidth          string       `json:"game_width"`
	GameHeight         string       `json:"game_height"`
	OutputWidth        string       `json:"output_width"`
	OutputHeight       string       `json:"output_height"`
	UpscaleMethod      string       `json:"upscale_method"`
	WindowType         string       `json:"window_type"`
	EnableLimiter      bool         `json:"enable_limiter"`
	FpsLimiter         string       `json:"fps_limiter"`
	FpsLimiterNoFocus  string       `json:"fps_limiter_no_focus"`
	ForceGrabCursor    bool         `json:"force_grab_cursor"`
	AdditionalOptions  string       `json:"additional_options"`
}

type EnvConfig struct {
	Gamemode     FeatureState      `json:"gamemode"`
	Gamescope    GamescopeConfig   `json:"gamescope"`
	Mangohud     FeatureState      `json:"mangohud"`
	PrimeOffload FeatureState      `json:"prime_offload"`
	CustomVars   map[string]string `json:"custom_vars"`
}

type WrapperCommand struct {
	State      FeatureState `json:"state"`
	Executable string       `json:"executable"`
	Args       string       `json:"args"`
}

type CompatibilityConfig struct {
	WineWayland          FeatureState     `json:"wine_wayland"`
	Hdr                  FeatureState     `json:"hdr"`
	AutoDxvkNvapi        FeatureState     `json:"auto_dxvk_nvapi"`
	EasyAntiCheatRuntime FeatureState     `json:"easy_anti_cheat_runtime"`
	BattleyeRuntime      FeatureState     `json:"battleye_runtime"`
	Staging              FeatureState     `json:"staging"`
	WrapperCommands      []WrapperCommand `json:"wrapper_commands"`
}

// WinecfgFeaturePolicy is the richer winecfg feature shape: a FeatureState
// plus whether the orchestrator should simply defer to wine's own default
// instead of forcing a value. Accepts a bare FeatureState on the wire for
// backward compatibility with older payloads.
type WinecfgFeaturePolicy struct {
	State           FeatureState `json:"state"`
	UseWineDefault  bool         `json:"use_wine_default"`
}

func (p WinecfgFeaturePolicy) Enabled() bool { return p.State.Enabled() }

func (p *WinecfgFeaturePolicy) UnmarshalJSON(data []byte) error {
	var legacy FeatureState
	if err := legacy.UnmarshalJSON(data); err == nil {
		*p = WinecfgFeaturePolicy{State: legacy, UseWineDefault: false}
		return nil
	}

	type structured struct {
		State          FeatureState `json:"state"`
		UseWineDefault bool         `json:"use_wine_default"`
	}
	var s structured
	if err := jsonUnmarshalStrict(data, &s); err != nil {
		return err
	}
	*p = WinecfgFeaturePolicy{State: s.State, UseWineDefault: s.UseWineDefault}
	return nil
}

type VirtualDesktopConfig struct {
	State      WinecfgFeaturePolicy `json:"state"`
	Resolution *string              `json:"resolution"`
}

type WineDriveMapping struct {
	Letter             string       `json:"letter"`
	SourceRelativePath string       `json:"source_relative_path"`
	State              FeatureState `json:"state"`
	HostPath           *string      `json:"host_path"`
	DriveType          *string      `json:"drive_type"`
	Label              *string      `json:"label"`
	Serial             *string      `json:"serial"`
}

type WineDesktopFolderMapping struct {
	FolderKey    string `json:"folder_key"`
	ShortcutName string `json:"shortcut_name"`
	LinuxPath    string `json:"linux_path"`
}

type DllOverrideRule struct {
	Dll  string `json:"dll"`
	Mode string `json:"mode"`
}

type WinecfgConfig struct {
	WindowsVersion         *string                    `json:"windows_version"`
	DllOverrides           []DllOverrideRule          `json:"dll_overrides"`
	AutoCaptureMouse       WinecfgFeaturePolicy       `json:"auto_capture_mouse"`
	WindowDecorations      WinecfgFeaturePolicy       `json:"window_decorations"`
	WindowManagerControl   WinecfgFeaturePolicy       `json:"window_manager_control"`
	VirtualDesktop         VirtualDesktopConfig       `json:"virtual_desktop"`
	ScreenDpi              *uint16                    `json:"screen_dpi"`
	DesktopIntegration     WinecfgFeaturePolicy       `json:"desktop_integration"`
	MimeAssociations       WinecfgFeaturePolicy       `json:"mime_associations"`
	DesktopFolders         []WineDesktopFolderMapping `json:"desktop_folders"`
	Drives                 []WineDriveMapping         `json:"drives"`
	AudioDriver            *string                    `json:"audio_driver"`
}

type RuntimeCandidate string

const (
	ProtonUmu    RuntimeCandidate = "ProtonUmu"
	ProtonNative RuntimeCandidate = "ProtonNative"
	Wine         RuntimeCandidate = "Wine"
)

type RuntimePolicy struct {
	Strict        bool               `json:"strict"`
	Primary       RuntimeCandidate   `json:"primary"`
	FallbackOrder []RuntimeCandidate `json:"fallback_order"`
}

type RequirementsConfig struct {
	Runtime      RuntimePolicy `json:"runtime"`
	Umu          FeatureState  `json:"umu"`
	Winetricks   FeatureState  `json:"winetricks"`
	Gamescope    FeatureState  `json:"gamescope"`
	Gamemode     FeatureState  `json:"gamemode"`
	Mangohud     FeatureState  `json:"mangohud"`
	SteamRuntime FeatureState  `json:"steam_runtime"`
}

type RegistryValueType string

const (
	RegSz       RegistryValueType = "REG_SZ"
	RegDword    RegistryValueType = "REG_DWORD"
	RegQword    RegistryValueType = "REG_QWORD"
	RegExpandSz RegistryValueType = "REG_EXPAND_SZ"
	RegMultiSz  RegistryValueType = "REG_MULTI_SZ"
	RegBinary   RegistryValueType = "REG_BINARY"
)

type RegistryKey struct {
	Path      string            `json:"path"`
	Name      string            `json:"name"`
	ValueType RegistryValueType `json:"value_type"`
	Value     string            `json:"value"`
}

type FolderMount struct {
	SourceRelativePath   string `json:"source_relative_path"`
	TargetWindowsPath    string `json:"target_windows_path"`
	CreateSourceIfMissing bool  `json:"create_source_if_missing"`
}

type SystemDependency struct {
	Name          string       `json:"name"`
	State         FeatureState `json:"state"`
	CheckCommands []string     `json:"check_commands"`
	CheckEnvVars  []string     `json:"check_env_vars"`
	CheckPaths    []string     `json:"check_paths"`
}

type ScriptsConfig struct {
	PreLaunch  string `json:"pre_launch"`
	PostLaunch string `json:"post_launch"`
}
