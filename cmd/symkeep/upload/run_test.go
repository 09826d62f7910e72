// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	"github.com/symkeep/symkeep/lib/machoid"
	"github.com/symkeep/symkeep/lib/progress"
	"github.com/symkeep/symkeep/lib/testutil"
)

var (
	uuidOne = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	uuidTwo = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// symbolServer fakes the symbol server API, recording every request so
// tests can assert on what an upload run actually did. Uploaded bundle
// entries are parsed for real so later checksum queries see them as
// known.
type symbolServer struct {
	t *testing.T

	// noAssociation and noReprocessing make the respective endpoints
	// return 404, the signal for an older server.
	noAssociation  bool
	noReprocessing bool

	// associateResult is what the associate endpoint reports as newly
	// linked.
	associateResult []string

	mu              sync.Mutex
	known           map[string]bool
	checksumQueries [][]string
	bundleEntries   [][]string
	associated      *associateRequest
	reprocessed     int
}

// associateRequest mirrors the association endpoint's wire format.
type associateRequest struct {
	Checksums []string `json:"checksums"`
	Platform  string   `json:"platform"`
	Name      string   `json:"name"`
	AppID     string   `json:"appId"`
	Version   string   `json:"version"`
	Build     string   `json:"build"`
}

func newSymbolServer(t *testing.T) (*symbolServer, *httptest.Server) {
	t.Helper()
	server := &symbolServer{t: t, known: make(map[string]bool)}
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return server, ts
}

func (s *symbolServer) markKnown(data []byte) {
	sum := sha1.Sum(data)
	s.mu.Lock()
	s.known[hex.EncodeToString(sum[:])] = true
	s.mu.Unlock()
}

func (s *symbolServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
		s.t.Errorf("Authorization = %q, want bearer test-token", auth)
	}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files/dsyms/unknown/"):
		s.serveUnknown(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files/dsyms/associate/"):
		s.serveAssociate(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reprocessing/"):
		s.serveReprocessing(w)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files/dsyms/"):
		s.serveUpload(w, r)
	default:
		s.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

func (s *symbolServer) serveUnknown(w http.ResponseWriter, r *http.Request) {
	queried := r.URL.Query()["checksums"]

	s.mu.Lock()
	s.checksumQueries = append(s.checksumQueries, queried)
	var missing []string
	for _, checksum := range queried {
		if !s.known[checksum] {
			missing = append(missing, checksum)
		}
	}
	s.mu.Unlock()

	if missing == nil {
		missing = []string{}
	}
	json.NewEncoder(w).Encode(map[string][]string{"missing": missing})
}

// serveUpload reads the multipart bundle, opens it as a zip, and
// registers every entry: its checksum becomes known and each embedded
// debug identifier is reported back as uploaded.
func (s *symbolServer) serveUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		s.t.Errorf("reading bundle part: %v", err)
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.t.Errorf("reading bundle: %v", err)
		http.Error(w, "bad bundle", http.StatusBadRequest)
		return
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.t.Errorf("opening bundle zip: %v", err)
		http.Error(w, "bad zip", http.StatusBadRequest)
		return
	}

	var entries []string
	var uploaded []map[string]string
	for _, entry := range archive.File {
		entries = append(entries, entry.Name)
		reader, err := entry.Open()
		if err != nil {
			s.t.Errorf("opening entry %s: %v", entry.Name, err)
			continue
		}
		content, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			s.t.Errorf("reading entry %s: %v", entry.Name, err)
			continue
		}
		s.markKnown(content)

		images, err := machoid.Images(bytes.NewReader(content))
		if err != nil {
			s.t.Errorf("parsing entry %s: %v", entry.Name, err)
			continue
		}
		for _, image := range images {
			uploaded = append(uploaded, map[string]string{
				"uuid":       image.UUID.String(),
				"objectName": entry.Name,
				"cpuName":    image.CPU,
			})
		}
	}

	s.mu.Lock()
	s.bundleEntries = append(s.bundleEntries, entries)
	s.mu.Unlock()

	if uploaded == nil {
		uploaded = []map[string]string{}
	}
	json.NewEncoder(w).Encode(uploaded)
}

func (s *symbolServer) serveAssociate(w http.ResponseWriter, r *http.Request) {
	if s.noAssociation {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not found"})
		return
	}

	var request associateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.t.Errorf("decoding associate request: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.associated = &request
	s.mu.Unlock()

	linked := []map[string]string{}
	for _, id := range s.associateResult {
		linked = append(linked, map[string]string{"uuid": id})
	}
	json.NewEncoder(w).Encode(map[string]any{"associatedDsymFiles": linked})
}

func (s *symbolServer) serveReprocessing(w http.ResponseWriter) {
	if s.noReprocessing {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not found"})
		return
	}
	s.mu.Lock()
	s.reprocessed++
	s.mu.Unlock()
	fmt.Fprint(w, "{}")
}

// writeTree materializes files under a fresh temp root. Keys use
// forward slashes and may contain subdirectories.
func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

// clearEnv blanks every environment variable the upload run consults,
// so the test is insulated from the invoking shell and any Xcode-like
// environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SYMKEEP_CONFIG", "SYMKEEP_URL", "SYMKEEP_AUTH_TOKEN",
		"SYMKEEP_ORG", "SYMKEEP_PROJECT", "SYMKEEP_LOG_LEVEL",
		"XCODE_VERSION_ACTUAL", "DWARF_DSYM_FOLDER_PATH",
		"INFOPLIST_FILE", "SYMKEEP_DETACHED",
	} {
		t.Setenv(name, "")
	}
}

// runForTest invokes the command body against the fake server with
// indicators disabled, returning the textual output.
func runForTest(t *testing.T, ts *httptest.Server, params *uploadParams, args []string) (string, error) {
	t.Helper()
	clearEnv(t)
	params.URL = ts.URL
	params.AuthToken = "test-token"
	params.Org = "acme"
	params.Project = "ios-app"

	var out bytes.Buffer
	err := run(&out, progress.Config{}, params, args)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *cli.ExitError", err)
	}
	return exitErr.Code
}

func TestRunUploadsMissingSymbols(t *testing.T) {
	server, ts := newSymbolServer(t)
	root := writeTree(t, map[string][]byte{
		"MyApp.dSYM/Contents/Resources/DWARF/MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
		"libcrash.dylib": testutil.MachO(testutil.CPUTypeX86_64, uuidTwo),
	})

	out, err := runForTest(t, ts, &uploadParams{}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{
		"Batch 1",
		"[1/3] Found 2 debug symbol files. Checking for missing symbols on server",
		"[2/3] Compressing 2 missing debug symbol files",
		"[3/3] Uploading debug symbol files",
		"Newly uploaded debug symbols:",
		uuidOne.String(),
		uuidTwo.String(),
		"Uploaded a total of 2 debug symbols",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if len(server.bundleEntries) != 1 {
		t.Fatalf("bundles uploaded = %d, want 1", len(server.bundleEntries))
	}
	for _, entry := range server.bundleEntries[0] {
		if !strings.HasPrefix(entry, "DebugSymbols/") {
			t.Errorf("bundle entry %q lacks DebugSymbols/ prefix", entry)
		}
	}
	if server.reprocessed != 1 {
		t.Errorf("reprocessing triggered %d times, want 1", server.reprocessed)
	}
}

func TestRunSkipsKnownSymbols(t *testing.T) {
	server, ts := newSymbolServer(t)
	image := testutil.MachO(testutil.CPUTypeARM64, uuidOne)
	server.markKnown(image)
	root := writeTree(t, map[string][]byte{"MyApp": image})

	out, err := runForTest(t, ts, &uploadParams{}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out, "[2/3] Nothing to compress, all symbols are on the server") {
		t.Errorf("output missing nothing-to-compress line:\n%s", out)
	}
	if !strings.Contains(out, "[3/3] Nothing to upload") {
		t.Errorf("output missing nothing-to-upload line:\n%s", out)
	}
	if strings.Contains(out, "Uploaded a total") {
		t.Errorf("output reports uploads for a fully known batch:\n%s", out)
	}
	if len(server.bundleEntries) != 0 {
		t.Errorf("bundles uploaded = %d, want 0", len(server.bundleEntries))
	}
}

func TestRunSplitsIntoBatches(t *testing.T) {
	server, ts := newSymbolServer(t)

	// One more file than the batch cap forces a second batch.
	files := make(map[string][]byte)
	for i := 0; i < 13; i++ {
		var id uuid.UUID
		id[15] = byte(i + 1)
		files[fmt.Sprintf("obj-%02d", i)] = testutil.MachO(testutil.CPUTypeARM64, id)
	}
	root := writeTree(t, files)

	out, err := runForTest(t, ts, &uploadParams{}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out, "Batch 1") || !strings.Contains(out, "Batch 2") {
		t.Errorf("output missing batch headers:\n%s", out)
	}
	// Batches after the first are separated by a blank line.
	if !strings.Contains(out, "\n\nBatch 2") {
		t.Errorf("second batch not preceded by a blank line:\n%s", out)
	}
	if got := len(server.checksumQueries); got != 2 {
		t.Fatalf("checksum queries = %d, want 2", got)
	}
	if len(server.checksumQueries[0]) != 12 || len(server.checksumQueries[1]) != 1 {
		t.Errorf("query sizes = %d, %d, want 12, 1",
			len(server.checksumQueries[0]), len(server.checksumQueries[1]))
	}
	if !strings.Contains(out, "Uploaded a total of 13 debug symbols") {
		t.Errorf("output missing total:\n%s", out)
	}
}

func TestRunDeduplicatesAcrossPaths(t *testing.T) {
	server, ts := newSymbolServer(t)
	image := testutil.MachO(testutil.CPUTypeARM64, uuidOne)
	rootA := writeTree(t, map[string][]byte{"MyApp": image})
	rootB := writeTree(t, map[string][]byte{"MyApp-copy": image})

	out, err := runForTest(t, ts, &uploadParams{}, []string{rootA, rootB})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if strings.Contains(out, "Batch 2") {
		t.Errorf("duplicate symbol produced a second batch:\n%s", out)
	}
	if len(server.bundleEntries) != 1 {
		t.Errorf("bundles uploaded = %d, want 1", len(server.bundleEntries))
	}
}

func TestRunRequireAllReportsMissing(t *testing.T) {
	_, ts := newSymbolServer(t)
	root := writeTree(t, map[string][]byte{
		"MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
	})

	params := &uploadParams{
		UUIDs:      []string{uuidOne.String(), uuidTwo.String()},
		RequireAll: true,
	}
	out, err := runForTest(t, ts, params, []string{root})
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	if !strings.Contains(out, "error: not all requested dsyms could be found.") {
		t.Errorf("output missing require-all error:\n%s", out)
	}
	if !strings.Contains(out, "The following symbols are still missing:") {
		t.Errorf("output missing report header:\n%s", out)
	}
	if !strings.Contains(out, "  "+uuidTwo.String()) {
		t.Errorf("output missing unsatisfied identifier:\n%s", out)
	}
	// The found symbol was still uploaded before the failure.
	if !strings.Contains(out, "Uploaded a total of 1 debug symbols") {
		t.Errorf("output missing upload total:\n%s", out)
	}
}

func TestRunRequireAllSatisfied(t *testing.T) {
	_, ts := newSymbolServer(t)
	root := writeTree(t, map[string][]byte{
		"MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
	})

	params := &uploadParams{
		UUIDs:      []string{uuidOne.String()},
		RequireAll: true,
	}
	if _, err := runForTest(t, ts, params, []string{root}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunAssociatesBuild(t *testing.T) {
	server, ts := newSymbolServer(t)
	server.associateResult = []string{uuidOne.String()}

	image := testutil.MachO(testutil.CPUTypeARM64, uuidOne)
	root := writeTree(t, map[string][]byte{
		"MyApp": image,
		"Info.plist": []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key><string>MyApp</string>
	<key>CFBundleIdentifier</key><string>com.example.myapp</string>
	<key>CFBundleShortVersionString</key><string>1.2.0</string>
	<key>CFBundleVersion</key><string>42</string>
</dict>
</plist>
`),
	})
	// The plist itself must not be scanned as a symbol path.
	params := &uploadParams{InfoPlist: filepath.Join(root, "Info.plist")}

	out, err := runForTest(t, ts, params, []string{filepath.Join(root, "MyApp")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out, "Associating dsyms with MyApp 1.2.0 (42)") {
		t.Errorf("output missing association line:\n%s", out)
	}
	if !strings.Contains(out, "Associated 1 debug symbols with the build.") {
		t.Errorf("output missing association result:\n%s", out)
	}

	if server.associated == nil {
		t.Fatal("no association request received")
	}
	if server.associated.AppID != "com.example.myapp" {
		t.Errorf("AppID = %q, want com.example.myapp", server.associated.AppID)
	}
	if server.associated.Platform != "apple" {
		t.Errorf("Platform = %q, want apple", server.associated.Platform)
	}
	sum := sha1.Sum(image)
	if want := hex.EncodeToString(sum[:]); len(server.associated.Checksums) != 1 || server.associated.Checksums[0] != want {
		t.Errorf("Checksums = %v, want [%s]", server.associated.Checksums, want)
	}
}

func TestRunAssociationUnsupported(t *testing.T) {
	server, ts := newSymbolServer(t)
	server.noAssociation = true

	root := writeTree(t, map[string][]byte{
		"MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
		"Info.plist": []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key><string>MyApp</string>
	<key>CFBundleIdentifier</key><string>com.example.myapp</string>
	<key>CFBundleShortVersionString</key><string>1.0</string>
	<key>CFBundleVersion</key><string>1</string>
</dict>
</plist>
`),
	})
	params := &uploadParams{InfoPlist: filepath.Join(root, "Info.plist")}

	out, err := runForTest(t, ts, params, []string{filepath.Join(root, "MyApp")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Server does not support dsym associations. Ignoring.") {
		t.Errorf("output missing unsupported-association note:\n%s", out)
	}
}

func TestRunReprocessingUnsupported(t *testing.T) {
	server, ts := newSymbolServer(t)
	server.noReprocessing = true
	root := writeTree(t, map[string][]byte{
		"MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
	})

	out, err := runForTest(t, ts, &uploadParams{}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Server does not support reprocessing. Not triggering.") {
		t.Errorf("output missing unsupported-reprocessing note:\n%s", out)
	}
}

func TestRunNoReprocessingFlag(t *testing.T) {
	server, ts := newSymbolServer(t)
	root := writeTree(t, map[string][]byte{
		"MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
	})

	out, err := runForTest(t, ts, &uploadParams{NoReprocessing: true}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Skipped reprocessing.") {
		t.Errorf("output missing skip note:\n%s", out)
	}
	if server.reprocessed != 0 {
		t.Errorf("reprocessing triggered %d times, want 0", server.reprocessed)
	}
}

func TestRunWarnsWithoutPaths(t *testing.T) {
	server, ts := newSymbolServer(t)

	out, err := runForTest(t, ts, &uploadParams{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Warning: no paths were provided.") {
		t.Errorf("output missing warning:\n%s", out)
	}
	// Reprocessing still runs; only discovery had nothing to do.
	if server.reprocessed != 1 {
		t.Errorf("reprocessing triggered %d times, want 1", server.reprocessed)
	}
}

func TestRunDiscoversPathsFromXcodeEnv(t *testing.T) {
	_, ts := newSymbolServer(t)
	root := writeTree(t, map[string][]byte{
		"MyApp.dSYM/Contents/Resources/DWARF/MyApp": testutil.MachO(testutil.CPUTypeARM64, uuidOne),
	})

	params := &uploadParams{ForceForeground: true}
	clearEnv(t)
	t.Setenv("DWARF_DSYM_FOLDER_PATH", root)
	t.Setenv("XCODE_VERSION_ACTUAL", "1640")

	params.URL = ts.URL
	params.AuthToken = "test-token"
	params.Org = "acme"
	params.Project = "ios-app"

	var out bytes.Buffer
	if err := run(&out, progress.Config{}, params, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), uuidOne.String()) {
		t.Errorf("output missing discovered symbol:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Warning: no paths were provided.") {
		t.Errorf("warning printed despite discovered paths:\n%s", out.String())
	}
}

func TestRunNoZips(t *testing.T) {
	_, ts := newSymbolServer(t)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	entry, err := zw.Create("bin/MyApp")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := entry.Write(testutil.MachO(testutil.CPUTypeARM64, uuidOne)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	root := writeTree(t, map[string][]byte{"symbols.zip": archive.Bytes()})

	out, err := runForTest(t, ts, &uploadParams{NoZips: true}, []string{root})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "Batch 1") {
		t.Errorf("archive content discovered despite --no-zips:\n%s", out)
	}
}

func TestRunRejectsBadUUID(t *testing.T) {
	_, ts := newSymbolServer(t)

	_, err := runForTest(t, ts, &uploadParams{UUIDs: []string{"not-a-uuid"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "parsing debug identifier") {
		t.Errorf("error = %v, want identifier parse failure", err)
	}
}

func TestRunRequiresProject(t *testing.T) {
	_, ts := newSymbolServer(t)
	clearEnv(t)

	params := &uploadParams{}
	params.URL = ts.URL
	params.AuthToken = "test-token"

	var out bytes.Buffer
	err := run(&out, progress.Config{}, params, nil)
	if err == nil || !strings.Contains(err.Error(), "no organization configured") {
		t.Errorf("error = %v, want missing-organization failure", err)
	}
}
