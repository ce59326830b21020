// Package gamescope builds the argv wrapper that runs a title's launch
// command inside gamescope when the configuration and doctor report both
// agree it's available and enabled.
package gamescope

import (
	"strconv"
	"strings"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// WrapResult is the (possibly unchanged) command line plus any
// human-readable notes worth surfacing to the player.
type WrapResult struct {
	CommandTokens []string
	Notes         []string
}

func dependencyPath(report doctor.Report, name string) (string, bool) {
	for _, dep := range report.Dependencies {
		if dep.Name == name && dep.Found && dep.ResolvedPath != nil {
			return *dep.ResolvedPath, true
		}
	}
	return "", false
}

// ApplyIfEnabled prepends the gamescope invocation (and, transitively,
// --mangoapp) to commandTokens when gamescope policy is enabled and the
// doctor report resolved a gamescope binary. commandTokens is otherwise
// returned unchanged.
func ApplyIfEnabled(cfg *gconfig.GameConfig, report doctor.Report, commandTokens []string) WrapResult {
	gamescopeActive := cfg.Environment.Gamescope.State.Enabled()
	mangohudActive := cfg.Requirements.Mangohud.Enabled()

	if !gamescopeActive {
		return WrapResult{CommandTokens: commandTokens}
	}

	path, found := dependencyPath(report, "gamescope")
	if !found {
		return WrapResult{CommandTokens: commandTokens}
	}

	var args []string
	var notes []string
	gs := cfg.Environment.Gamescope
	supportsModernFilter := doctor.GamescopeSupportsModernFilter(path)

	gameWidth := parseUintMaybeEmpty(gs.GameWidth)
	gameHeight := parseUintMaybeEmpty(gs.GameHeight)
	if gameWidth != nil {
		args = append(args, "-w", strconv.FormatUint(*gameWidth, 10))
	}
	if gameHeight != nil {
		args = append(args, "-h", strconv.FormatUint(*gameHeight, 10))
	}

	outputWidth := parseUintMaybeEmpty(gs.OutputWidth)
	outputHeight := parseUintMaybeEmpty(gs.OutputHeight)
	if (outputWidth == nil || outputHeight == nil) && gs.Resolution != nil {
		if w, h, ok := parseResolution(*gs.Resolution); ok {
			if outputWidth == nil {
				outputWidth = &w
			}
			if outputHeight == nil {
				outputHeight = &h
			}
		}
	}
	if outputWidth != nil {
		args = append(args, "-W", strconv.FormatUint(*outputWidth, 10))
	}
	if outputHeight != nil {
		args = append(args, "-H", strconv.FormatUint(*outputHeight, 10))
	}

	upscalingConfigured := gameWidth != nil || gameHeight != nil || outputWidth != nil || outputHeight != nil || gs.Fsr
	if upscalingConfigured {
		method := strings.TrimSpace(gs.UpscaleMethod)
		if gs.Fsr && method == "" {
			method = "fsr"
		}
		args = applyUpscaleFlags(args, method, supportsModernFilter)
	}

	switch strings.TrimSpace(gs.WindowType) {
	case "fullscreen":
		args = append(args, "-f")
		if doctor.HostWaylandSessionDetected() {
			notes = append(notes, "Gamescope fullscreen flag (-f) was applied. In nested Wayland sessions, compositors may still present the gamescope surface as a window.")
		}
	case "borderless":
		args = append(args, "-b")
	}

	if gs.EnableLimiter {
		if v := strings.TrimSpace(gs.FpsLimiter); v != "" {
			args = append(args, "-r", v)
		}
		if v := strings.TrimSpace(gs.FpsLimiterNoFocus); v != "" {
			args = append(args, "-o", v)
		}
	}

	if gs.ForceGrabCursor {
		args = append(args, "--force-grab-cursor")
	}

	if mangohudActive {
		args = append(args, "--mangoapp")
	}

	args = append(args, splitShellLikeArgs(gs.AdditionalOptions)...)

	args = append(args, "--")
	args = append(args, commandTokens...)

	wrapped := make([]string, 0, 1+len(args))
	wrapped = append(wrapped, path)
	wrapped = append(wrapped, args...)

	return WrapResult{CommandTokens: wrapped, Notes: notes}
}

func parseResolution(raw string) (uint64, uint64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "X", "x")
	w, h, found := strings.Cut(cleaned, "x")
	if !found {
		return 0, 0, false
	}
	width, err := strconv.ParseUint(strings.TrimSpace(w), 10, 32)
	if err != nil {
		return 0, 0, false
	}
	height, err := strconv.ParseUint(strings.TrimSpace(h), 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return width, height, true
}

func parseUintMaybeEmpty(raw string) *uint64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	v, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return nil
	}
	return &v
}

func splitShellLikeArgs(raw string) []string {
	return strings.Fields(raw)
}

func applyUpscaleFlags(args []string, rawMethod string, supportsModernFilter bool) []string {
	method := strings.ToLower(strings.TrimSpace(rawMethod))
	if method == "" {
		return args
	}

	if supportsModernFilter {
		switch method {
		case "fsr", "nis":
			return append(args, "-F", method)
		case "integer", "stretch":
			return append(args, "-S", method)
		}
		return args
	}

	switch method {
	case "fsr":
		return append(args, "-U")
	case "nis":
		return append(args, "-Y")
	case "integer":
		return append(args, "-i")
	}
	return args
}
