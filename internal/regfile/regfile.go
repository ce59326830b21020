// Package regfile renders REGEDIT4-format .reg files from a title's
// registry_keys and winecfg-backed settings, for import via `wine regedit`.
package regfile

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// Render groups keys by path and emits a REGEDIT4 document. Paths are
// rendered in first-seen order of the input slice, stable across calls
// for the same config.
func Render(keys []gconfig.RegistryKey) string {
	var order []string
	grouped := map[string][]gconfig.RegistryKey{}
	for _, key := range keys {
		if _, seen := grouped[key.Path]; !seen {
			order = append(order, key.Path)
		}
		grouped[key.Path] = append(grouped[key.Path], key)
	}

	var b strings.Builder
	b.WriteString("REGEDIT4\r\n")
	for _, path := range order {
		b.WriteString("\r\n[" + path + "]\r\n")
		for _, key := range grouped[path] {
			b.WriteString(renderValueLine(key) + "\r\n")
		}
	}
	return b.String()
}

func renderValueLine(key gconfig.RegistryKey) string {
	name := fmt.Sprintf("%q", key.Name)
	return name + "=" + renderValue(key.ValueType, key.Value)
}

func renderValue(valueType gconfig.RegistryValueType, raw string) string {
	switch valueType {
	case gconfig.RegSz:
		return fmt.Sprintf("%q", raw)
	case gconfig.RegDword:
		return "dword:" + hexUint(raw, 8)
	case gconfig.RegQword:
		return "hex(b):" + leEncode(raw, 8)
	case gconfig.RegExpandSz:
		return "hex(2):" + utf16LeHexString(raw)
	case gconfig.RegMultiSz:
		return "hex(7):" + utf16LeHexMultiString(raw)
	case gconfig.RegBinary:
		return "hex:" + hexBytes(raw)
	default:
		return fmt.Sprintf("%q", raw)
	}
}

func hexUint(raw string, width int) string {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		v = 0
	}
	return fmt.Sprintf("%0*x", width, v)
}

func leEncode(raw string, byteCount int) string {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		v = 0
	}
	bytes := make([]byte, byteCount)
	for i := 0; i < byteCount; i++ {
		bytes[i] = byte(v >> (8 * i))
	}
	return commaHex(bytes)
}

func hexBytes(raw string) string {
	decoded, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if err != nil {
		return ""
	}
	return commaHex(decoded)
}

func commaHex(bytes []byte) string {
	parts := make([]string, len(bytes))
	for i, b := range bytes {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ",")
}

func utf16LeHexString(s string) string {
	return commaHex(utf16LeBytes(s, true))
}

func utf16LeHexMultiString(s string) string {
	// MULTI_SZ values are newline-separated in our payload representation
	// and are joined with a single NUL between entries plus a trailing
	// double NUL terminator, matching REG_MULTI_SZ on-disk layout.
	parts := strings.Split(s, "\n")
	var bytes []byte
	for _, p := range parts {
		bytes = append(bytes, utf16LeBytes(p, false)...)
		bytes = append(bytes, 0x00, 0x00)
	}
	bytes = append(bytes, 0x00, 0x00)
	return commaHex(bytes)
}

func utf16LeBytes(s string, nullTerminate bool) []byte {
	var out []byte
	for _, r := range s {
		if r <= 0xFFFF {
			out = append(out, byte(r), byte(r>>8))
		} else {
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out, byte(hi), byte(hi>>8), byte(lo), byte(lo>>8))
		}
	}
	if nullTerminate {
		out = append(out, 0x00, 0x00)
	}
	return out
}

// WinecfgRegistryKeys synthesizes the registry-backed subset of a
// WinecfgConfig (DLL overrides, virtual desktop, audio driver) as
// RegistryKey entries, for the same Render path as the title's own
// registry_keys. Drive mappings are handled separately as dosdevices
// symlinks, not through the registry.
func WinecfgRegistryKeys(cfg gconfig.WinecfgConfig) []gconfig.RegistryKey {
	var keys []gconfig.RegistryKey

	for _, rule := range cfg.DllOverrides {
		keys = append(keys, gconfig.RegistryKey{
			Path:      `HKEY_CURRENT_USER\Software\Wine\DllOverrides`,
			Name:      rule.Dll,
			ValueType: gconfig.RegSz,
			Value:     rule.Mode,
		})
	}

	if cfg.VirtualDesktop.State.Enabled() {
		resolution := "1024x768"
		if cfg.VirtualDesktop.Resolution != nil {
			resolution = *cfg.VirtualDesktop.Resolution
		}
		keys = append(keys,
			gconfig.RegistryKey{
				Path:      `HKEY_CURRENT_USER\Software\Wine\Explorer`,
				Name:      "Desktop",
				ValueType: gconfig.RegSz,
				Value:     "Default",
			},
			gconfig.RegistryKey{
				Path:      `HKEY_CURRENT_USER\Software\Wine\Explorer\Desktops`,
				Name:      "Default",
				ValueType: gconfig.RegSz,
				Value:     resolution,
			},
		)
	}

	if cfg.AudioDriver != nil && *cfg.AudioDriver != "" {
		keys = append(keys, gconfig.RegistryKey{
			Path:      `HKEY_CURRENT_USER\Software\Wine\Drivers`,
			Name:      "Audio",
			ValueType: gconfig.RegSz,
			Value:     *cfg.AudioDriver,
		})
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Path < keys[j].Path })
	return keys
}
