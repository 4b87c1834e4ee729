// Package backup provides tar.gz-based backup and restore for a
// velocitycmdb data directory: its three SQLite databases (assets.db,
// arp_cat.db, users.db, §6), the capture/diffs/discovery trees, and an
// optional config file.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// databases lists the files under DATA_DIR that need a WAL checkpoint
// before being archived (§6 persisted state layout).
var databases = []string{"assets.db", "arp_cat.db", "users.db"}

// trees lists the on-disk directories archived alongside the databases.
var trees = []string{"capture", "diffs", "discovery"}

// Backup creates a tar.gz archive of dataDir's databases, capture/diffs/
// discovery trees, and optionally a config file, checkpointing each
// database's WAL before copying it so the archive is internally
// consistent.
func Backup(_ context.Context, dataDir, configPath, outputPath string) error {
	if _, err := os.Stat(dataDir); err != nil {
		return fmt.Errorf("data directory not found: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, name := range databases {
		dbPath := filepath.Join(dataDir, name)
		if _, err := os.Stat(dbPath); err != nil {
			continue // a fresh install may not have every database yet
		}
		if err := checkpointWAL(dbPath); err != nil {
			return fmt.Errorf("WAL checkpoint for %s failed: %w", name, err)
		}
		if err := addFileToTar(tw, dbPath, name); err != nil {
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}
	}

	for _, tree := range trees {
		dir := filepath.Join(dataDir, tree)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := addTreeToTar(tw, dataDir, tree); err != nil {
			return fmt.Errorf("adding %s/ to archive: %w", tree, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := addFileToTar(tw, configPath, filepath.Base(configPath)); err != nil {
				return fmt.Errorf("adding config to archive: %w", err)
			}
		}
		// If the config file doesn't exist, skip silently.
	}

	return nil
}

// Restore extracts archivePath into dataDir. With force, existing files
// are overwritten. Without force, Restore stops with an error at the first
// entry whose target already exists; entries extracted before it stay on
// disk.
func Restore(_ context.Context, archivePath, dataDir string, force bool) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}

		target := filepath.Join(dataDir, filepath.Clean(hdr.Name))
		if err := extractEntry(tr, hdr, target, force); err != nil {
			return err
		}
	}
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, target string, force bool) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if !force {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode))
		if err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		defer out.Close()
		_, err = io.Copy(out, tr)
		return err
	default:
		return nil
	}
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush the
// WAL, and closes the connection.
func checkpointWAL(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// addTreeToTar walks dataDir/relTree and adds every regular file found,
// preserving relTree-relative paths in the archive.
func addTreeToTar(tw *tar.Writer, dataDir, relTree string) error {
	root := filepath.Join(dataDir, relTree)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		return addFileToTar(tw, path, rel)
	})
}
