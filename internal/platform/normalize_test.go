package platform

import "testing"

func TestClassifyArch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Architecture
	}{
		{"armv7 kernel", "armv7l", ArchARM},
		{"armv6 kernel", "armv6l", ArchARM},
		{"aarch64 kernel", "aarch64", ArchARM},
		{"goarch arm", "arm", ArchARM},
		{"goarch arm64", "arm64", ArchARM},
		{"x86_64 kernel", "x86_64", ArchIntel},
		{"i686 kernel", "i686", ArchIntel},
		{"i386 kernel", "i386", ArchIntel},
		{"goarch amd64", "amd64", ArchIntel},
		{"goarch 386", "386", ArchIntel},
		{"uppercase", "X86_64", ArchIntel},
		{"surrounding space", " armv7l ", ArchARM},
		{"mips", "mips64", ArchUnknown},
		{"riscv", "riscv64", ArchUnknown},
		{"empty", "", ArchUnknown},
		{"garbage", "not-a-cpu", ArchUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyArch(tt.raw); got != tt.want {
				t.Errorf("ClassifyArch(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
