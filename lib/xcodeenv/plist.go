// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package xcodeenv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"howett.net/plist"
)

// InfoPlist carries the app identity fields read from an Info.plist.
// Symbol uploads use these to associate symbols with a specific app
// build on the server.
type InfoPlist struct {
	// Name is the app's display name (CFBundleName).
	Name string `plist:"CFBundleName"`

	// BundleID is the bundle identifier (CFBundleIdentifier).
	BundleID string `plist:"CFBundleIdentifier"`

	// Version is the short version string
	// (CFBundleShortVersionString).
	Version string `plist:"CFBundleShortVersionString"`

	// Build is the build number (CFBundleVersion).
	Build string `plist:"CFBundleVersion"`
}

func (p *InfoPlist) String() string {
	return fmt.Sprintf("%s %s (%s)", p.Name, p.Version, p.Build)
}

// LoadInfoPlist reads an Info.plist file and expands $(VAR) and ${VAR}
// build-setting references in its string fields from the environment.
// Source Info.plists routinely contain references like
// $(PRODUCT_BUNDLE_IDENTIFIER) that Xcode resolves at build time; in a
// run-script phase the same settings are present as environment
// variables.
func LoadInfoPlist(path string) (*InfoPlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var info InfoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	info.Name = expandBuildSettings(info.Name)
	info.BundleID = expandBuildSettings(info.BundleID)
	info.Version = expandBuildSettings(info.Version)
	info.Build = expandBuildSettings(info.Build)
	return &info, nil
}

// DiscoverInfoPlist locates and loads the Info.plist named by the
// Xcode build environment. Returns nil, nil when the process is not
// running inside an Xcode build or the build exports no Info.plist.
func DiscoverInfoPlist() (*InfoPlist, error) {
	if !IsRunFromXcode() {
		return nil, nil
	}
	path := os.Getenv("INFOPLIST_FILE")
	if path == "" {
		return nil, nil
	}
	if !filepath.IsAbs(path) {
		// INFOPLIST_FILE is project-relative.
		path = filepath.Join(os.Getenv("PROJECT_DIR"), path)
	}
	return LoadInfoPlist(path)
}

// buildSettingPattern matches $(VAR) and ${VAR} build-setting
// references, with an optional :modifier suffix (e.g.
// $(PRODUCT_NAME:rfc1034identifier)).
var buildSettingPattern = regexp.MustCompile(`\$[({]([A-Za-z0-9_]+)(?::[^)}]*)?[)}]`)

// expandBuildSettings replaces build-setting references with values
// from the environment. Modifier suffixes are dropped; references to
// unset variables are left untouched so the raw value stays visible in
// output.
func expandBuildSettings(value string) string {
	return buildSettingPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := buildSettingPattern.FindStringSubmatch(match)[1]
		if expanded, ok := os.LookupEnv(name); ok {
			return expanded
		}
		return match
	})
}
