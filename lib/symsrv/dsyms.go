// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package symsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/symkeep/symkeep/lib/netutil"
)

// UploadedSymbol describes one debug symbol file registered with the
// server.
type UploadedSymbol struct {
	// UUID is the debug identifier of the symbol file.
	UUID string `json:"uuid"`

	// ObjectName is the original object file name (e.g. the dSYM
	// binary path).
	ObjectName string `json:"objectName"`

	// CPUName is the architecture the symbols cover (e.g. "arm64").
	CPUName string `json:"cpuName"`
}

// BuildAssociation identifies the app build that uploaded symbols
// should be linked to. The values come from the build's Info.plist.
type BuildAssociation struct {
	// AppID is the bundle identifier (e.g. "com.example.app").
	AppID string

	// Name is the app's display name.
	Name string

	// Version is the short version string (CFBundleShortVersionString).
	Version string

	// Build is the build number (CFBundleVersion).
	Build string
}

// AssociateResponse reports which symbols the server newly linked to a
// build.
type AssociateResponse struct {
	AssociatedSymbols []UploadedSymbol `json:"associatedDsymFiles"`
}

// associateRequest is the wire format for the association endpoint.
type associateRequest struct {
	Checksums []string `json:"checksums"`
	Platform  string   `json:"platform"`
	Name      string   `json:"name"`
	AppID     string   `json:"appId"`
	Version   string   `json:"version"`
	Build     string   `json:"build"`
}

// FindMissingChecksums asks the server which of the given SHA1
// checksums it does not have yet. The result is a subset of the input;
// only files whose checksums come back should be uploaded.
func (client *Client) FindMissingChecksums(ctx context.Context, org, project string, checksums []string) ([]string, error) {
	if len(checksums) == 0 {
		return nil, nil
	}

	query := url.Values{}
	for _, checksum := range checksums {
		query.Add("checksums", checksum)
	}
	path := projectPath("/projects/%s/%s/files/dsyms/unknown/", org, project) + "?" + query.Encode()

	var result struct {
		Missing []string `json:"missing"`
	}
	if err := client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Missing, nil
}

// UploadBundle uploads a zip bundle of debug symbol files and returns
// the symbols the server registered from it. The bundle is streamed
// from disk; it is never buffered in memory.
func (client *Client) UploadBundle(ctx context.Context, org, project, bundlePath string) ([]UploadedSymbol, error) {
	file, err := os.Open(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("symsrv: opening bundle: %w", err)
	}
	defer file.Close()
	return client.uploadBundle(ctx, org, project, file, filepath.Base(bundlePath), false)
}

// uploadBundle streams one upload attempt. On a 429 with usable
// backoff it rewinds the file and retries once.
func (client *Client) uploadBundle(ctx context.Context, org, project string, file *os.File, filename string, isRetry bool) ([]UploadedSymbol, error) {
	bodyReader, bodyWriter := io.Pipe()
	form := multipart.NewWriter(bodyWriter)
	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			bodyWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			bodyWriter.CloseWithError(err)
			return
		}
		bodyWriter.CloseWithError(form.Close())
	}()

	path := projectPath("/projects/%s/%s/files/dsyms/", org, project)
	response, err := client.doRaw(ctx, http.MethodPost, client.baseURL+path, bodyReader, form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("symsrv: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if !isRetry && response.StatusCode == http.StatusTooManyRequests {
			if wait := retryAfter(response.Header); wait > 0 {
				client.logger.Info("rate limited, backing off",
					"duration", wait,
					"method", http.MethodPost,
					"path", path,
				)

				select {
				case <-client.clock.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}

				if _, err := file.Seek(0, io.SeekStart); err != nil {
					return nil, fmt.Errorf("symsrv: rewinding bundle for retry: %w", err)
				}
				return client.uploadBundle(ctx, org, project, file, filename, true)
			}
		}
		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}

	var uploaded []UploadedSymbol
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return nil, fmt.Errorf("symsrv: decoding upload response: %w", err)
	}
	return uploaded, nil
}

// AssociateSymbols links uploaded symbols to an app build so the
// server can resolve them by app version. Returns nil, nil when the
// server does not support associations (HTTP 404).
func (client *Client) AssociateSymbols(ctx context.Context, org, project string, build BuildAssociation, checksums []string) (*AssociateResponse, error) {
	if checksums == nil {
		checksums = []string{}
	}
	requestBody := associateRequest{
		Checksums: checksums,
		Platform:  "apple",
		Name:      build.Name,
		AppID:     build.AppID,
		Version:   build.Version,
		Build:     build.Build,
	}

	var result AssociateResponse
	err := client.post(ctx, projectPath("/projects/%s/%s/files/dsyms/associate/", org, project), requestBody, &result)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TriggerReprocessing asks the server to re-run event processing with
// the newly available symbols. Returns false, nil when the server does
// not support reprocessing (HTTP 404).
func (client *Client) TriggerReprocessing(ctx context.Context, org, project string) (bool, error) {
	err := client.post(ctx, projectPath("/projects/%s/%s/reprocessing/", org, project), struct{}{}, nil)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
