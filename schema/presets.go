package schema

import "sort"

// Schemas for the list pages of the gateway console.
var presets = map[string]*Schema{
	"vpn-accounts": {
		Name:  "vpn-accounts",
		Title: "VPN Accounts",
		Fields: []Field{
			{Name: "username", Label: "Username", Kind: KindText, Required: true},
			{Name: "password", Label: "Password", Kind: KindText, Required: true},
		},
	},
	"sip-trunks": {
		Name:  "sip-trunks",
		Title: "SIP Trunks",
		Fields: []Field{
			{Name: "name", Label: "Trunk Name", Kind: KindText, Required: true},
			{Name: "host", Label: "Host", Kind: KindText, Required: true},
			{Name: "port", Label: "Port", Kind: KindNumber, Default: float64(5060)},
			{Name: "register", Label: "Register", Kind: KindBool},
		},
	},
	"sip-accounts": {
		Name:  "sip-accounts",
		Title: "SIP Accounts",
		Fields: []Field{
			{Name: "extension", Label: "Extension", Kind: KindText, Required: true},
			{Name: "password", Label: "Password", Kind: KindText, Required: true},
			{Name: "display_name", Label: "Display Name", Kind: KindText},
			{Name: "max_calls", Label: "Max Calls", Kind: KindNumber},
		},
	},
	"radius-servers": {
		Name:  "radius-servers",
		Title: "RADIUS Servers",
		Fields: []Field{
			{Name: "address", Label: "Server Address", Kind: KindText, Required: true},
			{Name: "secret", Label: "Shared Secret", Kind: KindText, Required: true},
			{Name: "auth_port", Label: "Authentication Port", Kind: KindNumber, Default: float64(1812)},
			{Name: "acct_port", Label: "Accounting Port", Kind: KindNumber, Default: float64(1813)},
		},
	},
}

// Preset returns the built-in schema with the given name.
func Preset(name string) (*Schema, bool) {
	s, ok := presets[name]
	return s, ok
}

// Presets returns the names of all built-in schemas, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Secret reports whether a field holds a credential that should be masked
// when shown.
func Secret(f Field) bool {
	switch f.Name {
	case "password", "secret":
		return true
	}
	return false
}
