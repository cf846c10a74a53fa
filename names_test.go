package mrupdate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionTag(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"sodium-fabric-mc1.20.1-0.5.3.jar", "1.20.1-0.5.3.jar"},
		{"lithium-0.11.2.jar", "0.11.2.jar"},
		{"modmenu-7.2.2.jar.disabled", "7.2.2.jar.disabled"},
		{"iris_1.6.4+1.20.jar", "1.6.4"},
		{"appleskin-fabric-mc1.20.1-2.5.1.jar", "1.20.1-2.5.1.jar"},
		{"cloth-config-11.1.106-fabric.jar", "11.1.106-fabric.jar"},
		{"nover.jar", "???"},
		{"v2.jar", "???"},
		{"N/A", "N/A"},
		{"", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VersionTag(tt.name))
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"sodium-fabric-mc1.20.1-0.5.3.jar", "sodium mc1.20.1"},
		{"lithium-fabric-0.11.2.jar", "lithium"},
		{"fabric-api-0.91.0+1.20.1.jar", "api"},
		{"modmenu-7.2.2.jar.disabled", "modmenu"},
		{"Xaeros_Minimap_23.9.7_Fabric_1.20.jar", "Xaeros Minimap"},
		{"jei-1.20.1-forge-15.2.0.27.jar", "jei"},
		{"create_quilt-1.20.1.jar", "create"},
		{"neoforge-thing-1.0.jar", "neoforge thing"},
		{"fabric.jar", "fabric"},
		{"cloth__config--api.jar", "cloth config api"},
		{"x.jar-1.jar", "x"},
		{"mod.disabled_fabric.jar", "mod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.name))
		})
	}
}

func TestDisplayNameIdempotent(t *testing.T) {
	names := []string{
		"sodium-fabric-mc1.20.1-0.5.3.jar",
		"a-fabric-fabric.jar",
		"quilt-fabric-fabric.jar.disabled",
		"forge.jar.jar",
		"Just Enough Items",
		"foo-.jar",
		"x_1.0_y",
		"x.jar-1.jar",
		"mod.disabled_fabric.jar",
		"a.jar_forge.jar.disabled",
		"",
	}
	for _, name := range names {
		once := DisplayName(name)
		assert.Equal(t, once, DisplayName(once), name)
	}
}

func TestDisabledPath(t *testing.T) {
	assert.Equal(t, "mods/a.jar.disabled", DisabledPath("mods/a.jar"))
	assert.Equal(t, "mods/a.jar.disabled", DisabledPath("mods/a.jar.disabled"))
	assert.Equal(t, "mods/a.jar.disabled", DisabledPath(DisabledPath("mods/a.jar.disabled.disabled")))
}
