// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package xcodeenv

import (
	"os"
	"path/filepath"
	"testing"
)

const plistFixture = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>$(PRODUCT_NAME)</string>
	<key>CFBundleIdentifier</key>
	<string>com.example.$(PRODUCT_NAME:rfc1034identifier)</string>
	<key>CFBundleShortVersionString</key>
	<string>1.2.0</string>
	<key>CFBundleVersion</key>
	<string>42</string>
</dict>
</plist>
`

func writePlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Info.plist")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing plist: %v", err)
	}
	return path
}

func TestLoadInfoPlist(t *testing.T) {
	t.Setenv("PRODUCT_NAME", "Example")
	path := writePlist(t, plistFixture)

	info, err := LoadInfoPlist(path)
	if err != nil {
		t.Fatalf("LoadInfoPlist: %v", err)
	}
	if info.Name != "Example" {
		t.Errorf("Name = %q, want Example", info.Name)
	}
	if info.BundleID != "com.example.Example" {
		t.Errorf("BundleID = %q, want com.example.Example", info.BundleID)
	}
	if info.Version != "1.2.0" || info.Build != "42" {
		t.Errorf("Version/Build = %q/%q, want 1.2.0/42", info.Version, info.Build)
	}
}

func TestLoadInfoPlist_Missing(t *testing.T) {
	_, err := LoadInfoPlist(filepath.Join(t.TempDir(), "absent.plist"))
	if err == nil {
		t.Fatal("expected error for missing plist")
	}
}

func TestLoadInfoPlist_Garbage(t *testing.T) {
	path := writePlist(t, "not a plist at all")
	if _, err := LoadInfoPlist(path); err == nil {
		t.Fatal("expected error for unparseable plist")
	}
}

func TestInfoPlistString(t *testing.T) {
	info := &InfoPlist{Name: "Example", Version: "1.2.0", Build: "42"}
	if got := info.String(); got != "Example 1.2.0 (42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestDiscoverInfoPlist_NotXcode(t *testing.T) {
	t.Setenv("XCODE_VERSION_ACTUAL", "")
	t.Setenv("INFOPLIST_FILE", "whatever")

	info, err := DiscoverInfoPlist()
	if err != nil {
		t.Fatalf("DiscoverInfoPlist: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil outside Xcode, got %+v", info)
	}
}

func TestDiscoverInfoPlist_NoPlistExported(t *testing.T) {
	t.Setenv("XCODE_VERSION_ACTUAL", "1500")
	t.Setenv("INFOPLIST_FILE", "")

	info, err := DiscoverInfoPlist()
	if err != nil {
		t.Fatalf("DiscoverInfoPlist: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil with no INFOPLIST_FILE, got %+v", info)
	}
}

func TestDiscoverInfoPlist_ProjectRelative(t *testing.T) {
	t.Setenv("PRODUCT_NAME", "Example")
	projectDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectDir, "Info.plist"), []byte(plistFixture), 0o644); err != nil {
		t.Fatalf("writing plist: %v", err)
	}

	t.Setenv("XCODE_VERSION_ACTUAL", "1500")
	t.Setenv("PROJECT_DIR", projectDir)
	t.Setenv("INFOPLIST_FILE", "Info.plist")

	info, err := DiscoverInfoPlist()
	if err != nil {
		t.Fatalf("DiscoverInfoPlist: %v", err)
	}
	if info == nil || info.Name != "Example" {
		t.Errorf("expected discovered plist, got %+v", info)
	}
}

func TestExpandBuildSettings(t *testing.T) {
	t.Setenv("PRODUCT_NAME", "Example")
	t.Setenv("EMPTY_SETTING", "")

	tests := []struct {
		input string
		want  string
	}{
		{"$(PRODUCT_NAME)", "Example"},
		{"${PRODUCT_NAME}", "Example"},
		{"$(PRODUCT_NAME:rfc1034identifier)", "Example"},
		{"prefix-$(PRODUCT_NAME)-suffix", "prefix-Example-suffix"},
		{"$(NOT_A_REAL_SETTING)", "$(NOT_A_REAL_SETTING)"},
		{"$(EMPTY_SETTING)", ""},
		{"no references", "no references"},
	}
	for _, tt := range tests {
		if got := expandBuildSettings(tt.input); got != tt.want {
			t.Errorf("expandBuildSettings(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
