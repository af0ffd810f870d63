package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/gwconsole/schema"
)

func vpn(t *testing.T) *schema.Schema {
	t.Helper()
	s, ok := schema.Preset("vpn-accounts")
	require.True(t, ok)
	return s
}

func trunks(t *testing.T) *schema.Schema {
	t.Helper()
	s, ok := schema.Preset("sip-trunks")
	require.True(t, ok)
	return s
}

func TestValidateRequired(t *testing.T) {
	s := vpn(t)

	errs := s.Validate(map[string]any{"username": "", "password": "x"})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "username")

	errs = s.Validate(map[string]any{"username": "a", "password": "b"})
	assert.NotNil(t, errs)
	assert.Empty(t, errs)
}

func TestValidateWhitespaceAndMissing(t *testing.T) {
	s := vpn(t)

	errs := s.Validate(map[string]any{"username": "   \t"})
	assert.Equal(t, "Username is required", errs["username"])
	assert.Equal(t, "Password is required", errs["password"])

	errs = s.Validate(map[string]any{"username": nil, "password": "p"})
	assert.Contains(t, errs, "username")
	assert.NotContains(t, errs, "password")
}

func TestValidateNumbers(t *testing.T) {
	s := trunks(t)
	base := func(port any) map[string]any {
		return map[string]any{"name": "t1", "host": "10.0.0.1", "port": port}
	}

	tests := []struct {
		name  string
		port  any
		valid bool
	}{
		{"string", "5060", true},
		{"padded string", " 5060 ", true},
		{"float", float64(5060), true},
		{"int", 5060, true},
		{"zero", "0", true},
		{"blank optional", "", true},
		{"negative", "-1", false},
		{"negative float", float64(-0.5), false},
		{"garbage", "50x", false},
		{"nan", "NaN", false},
		{"inf", "Inf", false},
		{"bool", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := s.Validate(base(tc.port))
			if tc.valid {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, map[string]string{"port": "Port must be a non-negative number"}, errs)
			}
		})
	}
}

func TestValidateBoolNeverFails(t *testing.T) {
	s := trunks(t)
	errs := s.Validate(map[string]any{"name": "t", "host": "h", "register": "maybe"})
	assert.Empty(t, errs)
}

func TestDefaults(t *testing.T) {
	d := trunks(t).Defaults()
	assert.Equal(t, map[string]any{
		"name":     "",
		"host":     "",
		"port":     float64(5060),
		"register": false,
	}, d)

	// each call hands out an independent draft
	d["name"] = "changed"
	assert.Equal(t, "", trunks(t).Defaults()["name"])
}

func TestNormalize(t *testing.T) {
	s := trunks(t)
	in := map[string]any{"name": "t", "host": "h", "port": "5061", "register": "true", "note": "x"}
	out := s.Normalize(in)

	assert.Equal(t, float64(5061), out["port"])
	assert.Equal(t, true, out["register"])
	assert.Equal(t, "x", out["note"])
	assert.Equal(t, "5061", in["port"], "input must not be modified")

	out = s.Normalize(map[string]any{"port": "", "register": "maybe"})
	assert.Equal(t, "", out["port"])
	assert.Equal(t, "maybe", out["register"])
}

func TestOrderedKeys(t *testing.T) {
	s := trunks(t)
	keys := s.OrderedKeys(map[string]any{"zeta": 1, "register": true, "name": "n", "alpha": 2})
	assert.Equal(t, []string{"name", "register", "alpha", "zeta"}, keys)
}

func TestPresets(t *testing.T) {
	names := schema.Presets()
	assert.Equal(t, []string{"radius-servers", "sip-accounts", "sip-trunks", "vpn-accounts"}, names)

	_, ok := schema.Preset("nope")
	assert.False(t, ok)

	f, ok := vpn(t).Field("password")
	require.True(t, ok)
	assert.True(t, schema.Secret(f))
	assert.Equal(t, []string{"username", "password"}, vpn(t).Names())
}
