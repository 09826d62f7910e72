// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	"github.com/symkeep/symkeep/lib/dsym"
	"github.com/symkeep/symkeep/lib/progress"
	"github.com/symkeep/symkeep/lib/symsrv"
	"github.com/symkeep/symkeep/lib/xcodeenv"
)

// styles holds the output styles, bound to the output writer so that
// escapes only appear when it is a terminal.
type styles struct {
	bold  lipgloss.Style
	faint lipgloss.Style
	count lipgloss.Style
	fail  lipgloss.Style
}

func newStyles(out io.Writer) styles {
	renderer := lipgloss.NewRenderer(out)
	return styles{
		bold:  renderer.NewStyle().Bold(true),
		faint: renderer.NewStyle().Faint(true),
		count: renderer.NewStyle().Foreground(lipgloss.Color("220")), // yellow
		fail:  renderer.NewStyle().Foreground(lipgloss.Color("196")), // red
	}
}

// run is the upload command body. Progress indicators render to stderr
// per the indicators config; all regular output goes to out.
func run(out io.Writer, indicators progress.Config, params *uploadParams, args []string) error {
	cfg, err := params.load()
	if err != nil {
		return err
	}
	if err := cfg.RequireProject(); err != nil {
		return err
	}
	if err := cfg.RequireAuthToken(); err != nil {
		return err
	}

	targets, err := dsym.ParseUUIDSet(params.UUIDs)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths, err = xcodeenv.DiscoverDSYMDirs()
		if err != nil {
			return err
		}
	}
	if params.DerivedData {
		derived, err := xcodeenv.DerivedDataPath()
		if err != nil {
			return err
		}
		// Replace the paths only when derived data actually exists;
		// otherwise the flag quietly falls back to them.
		if info, err := os.Stat(derived); err == nil && info.IsDir() {
			paths = []string{derived}
		}
	}

	var infoPlist *xcodeenv.InfoPlist
	if params.InfoPlist != "" {
		infoPlist, err = xcodeenv.LoadInfoPlist(params.InfoPlist)
	} else {
		infoPlist, err = xcodeenv.DiscoverInfoPlist()
	}
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		fmt.Fprintln(out, "Warning: no paths were provided.")
	}

	logger := cli.NewCommandLogger(cfg.Level()).With("command", "upload")

	if !params.ForceForeground {
		detached, logPath, err := xcodeenv.Detach()
		if err != nil {
			return err
		}
		if detached {
			fmt.Fprintf(out, "Continuing upload in the background. Output: %s\n", logPath)
			return nil
		}
	}

	client, err := params.connect(cfg, logger)
	if err != nil {
		return err
	}

	u := &uploader{
		out:        out,
		styles:     newStyles(out),
		indicators: indicators,
		client:     client,
		org:        cfg.Org,
		project:    cfg.Project,
		logger:     logger,
	}

	ctx := context.Background()
	found := dsym.NewUUIDSet()

	for _, root := range paths {
		logger.Debug("scanning", "path", root)
		if err := u.scanRoot(ctx, root, targets, found, !params.NoZips); err != nil {
			return err
		}
	}

	if infoPlist != nil {
		if err := u.associate(ctx, infoPlist); err != nil {
			return err
		}
	}

	if u.totalUploaded > 0 {
		fmt.Fprintf(out, "Uploaded a total of %s debug symbols\n",
			u.styles.count.Render(strconv.Itoa(u.totalUploaded)))
	}

	if params.NoReprocessing {
		fmt.Fprintln(out, "Skipped reprocessing.")
	} else {
		triggered, err := client.TriggerReprocessing(ctx, cfg.Org, cfg.Project)
		if err != nil {
			return err
		}
		if !triggered {
			fmt.Fprintln(out, "Server does not support reprocessing. Not triggering.")
		}
	}

	if params.RequireAll {
		if missing := targets.Difference(found); len(missing) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, u.styles.fail.Render("error: not all requested dsyms could be found."))
			fmt.Fprintln(out, "The following symbols are still missing:")
			for _, id := range missing {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return &cli.ExitError{Code: 1}
		}
	}

	return nil
}

// uploader carries the state threaded through one upload run: the
// global batch counter, the checksums of everything discovered (for
// the build association), and the upload total.
type uploader struct {
	out        io.Writer
	styles     styles
	indicators progress.Config
	client     *symsrv.Client
	org        string
	project    string
	logger     *slog.Logger

	batchNum      int
	checksums     []string
	totalUploaded int
}

// scanRoot iterates the discovery batches of one root path and
// processes each. The found set is shared across roots so the same
// symbol file reached twice is only handled once.
func (u *uploader) scanRoot(ctx context.Context, root string, targets, found dsym.UUIDSet, descendArchives bool) error {
	spin := progress.NewSpinner(u.indicators, "Looking for symbols...")
	it := dsym.NewBatchIterator(dsym.BatchConfig{
		Root:            root,
		Targets:         targets,
		Found:           found,
		DescendArchives: descendArchives,
		Visit: func(path string) {
			spin.Tick(filepath.Base(path))
		},
	})
	defer it.Close()

	for {
		batch, err := it.Next()
		spin.Clear()
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}
		if err := u.processBatch(ctx, batch); err != nil {
			return err
		}
	}
}

// processBatch runs the check/compress/upload steps for one discovery
// batch.
func (u *uploader) processBatch(ctx context.Context, batch []*dsym.SymbolRef) error {
	if u.batchNum > 0 {
		fmt.Fprintln(u.out)
	}
	u.batchNum++
	fmt.Fprintln(u.out, u.styles.bold.Render(fmt.Sprintf("Batch %d", u.batchNum)))

	checksums := make([]string, len(batch))
	for i, ref := range batch {
		checksums[i] = ref.Checksum
	}
	// Association covers everything discovered, not just what this
	// run uploads: symbols already on the server still belong to the
	// build.
	u.checksums = append(u.checksums, checksums...)

	fmt.Fprintf(u.out, "%s Found %s debug symbol files. Checking for missing symbols on server\n",
		u.styles.faint.Render("[1/3]"), u.styles.count.Render(strconv.Itoa(len(batch))))

	missing, err := u.client.FindMissingChecksums(ctx, u.org, u.project, checksums)
	if err != nil {
		return err
	}
	refs := dsym.SelectMissing(batch, missing)
	u.logger.Debug("batch checked", "size", len(batch), "missing", len(refs))

	if len(refs) == 0 {
		fmt.Fprintf(u.out, "%s Nothing to compress, all symbols are on the server\n", u.styles.faint.Render("[2/3]"))
		fmt.Fprintf(u.out, "%s Nothing to upload\n", u.styles.faint.Render("[3/3]"))
		return nil
	}

	fmt.Fprintf(u.out, "%s Compressing %s missing debug symbol files\n",
		u.styles.faint.Render("[2/3]"), u.styles.count.Render(strconv.Itoa(len(refs))))

	bundle, err := u.writeBundle(refs)
	if err != nil {
		return err
	}
	defer os.Remove(bundle)

	fmt.Fprintf(u.out, "%s Uploading debug symbol files\n", u.styles.faint.Render("[3/3]"))
	uploaded, err := u.client.UploadBundle(ctx, u.org, u.project, bundle)
	if err != nil {
		return err
	}

	if len(uploaded) > 0 {
		u.totalUploaded += len(uploaded)
		fmt.Fprintln(u.out, "Newly uploaded debug symbols:")
		for _, symbol := range uploaded {
			fmt.Fprintf(u.out, "  %s (%s; %s)\n",
				u.styles.faint.Render(symbol.UUID), symbol.ObjectName, symbol.CPUName)
		}
	}
	return nil
}

// writeBundle compresses the refs into a temporary zip bundle and
// returns its path. The batch's archive refs must still be live, so
// this runs before the iterator moves on. The caller removes the file.
func (u *uploader) writeBundle(refs []*dsym.SymbolRef) (string, error) {
	var total int64
	for _, ref := range refs {
		total += ref.Size
	}

	file, err := os.CreateTemp("", "symkeep-bundle-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating bundle file: %w", err)
	}

	meter := progress.NewMeter(u.indicators, total)
	err = dsym.WriteBundle(file, refs, meter.Add)
	meter.Clear()
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

// associate links every symbol discovered in this run to the app build
// described by the Info.plist.
func (u *uploader) associate(ctx context.Context, info *xcodeenv.InfoPlist) error {
	fmt.Fprintf(u.out, "Associating dsyms with %s\n", info)

	build := symsrv.BuildAssociation{
		AppID:   info.BundleID,
		Name:    info.Name,
		Version: info.Version,
		Build:   info.Build,
	}
	resp, err := u.client.AssociateSymbols(ctx, u.org, u.project, build, u.checksums)
	if err != nil {
		return err
	}
	switch {
	case resp == nil:
		fmt.Fprintln(u.out, "Server does not support dsym associations. Ignoring.")
	case len(resp.AssociatedSymbols) == 0:
		fmt.Fprintln(u.out, "No new debug symbols to associate.")
	default:
		fmt.Fprintf(u.out, "Associated %s debug symbols with the build.\n",
			u.styles.count.Render(strconv.Itoa(len(resp.AssociatedSymbols))))
	}
	return nil
}
