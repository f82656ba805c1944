package convert

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/elvencache/ec-bokeh/internal/utils"
)

type FileEntry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// maxPkgString guards against reading a garbage length as a huge allocation.
const maxPkgString = 4096

func readPkgString(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	if size > maxPkgString {
		return "", fmt.Errorf("pkg string length %d too large", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadPkgIndex reads the version tag and file table of a PKGV archive. The
// returned offset is where entry data starts.
func ReadPkgIndex(r io.ReadSeeker) (string, []FileEntry, int64, error) {
	version, err := readPkgString(r)
	if err != nil {
		return "", nil, 0, err
	}
	if !strings.HasPrefix(version, "PKGV") {
		return "", nil, 0, fmt.Errorf("not a PKGV archive: %q", version)
	}

	var fileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return "", nil, 0, err
	}

	entries := make([]FileEntry, 0, min(fileCount, 1024))
	for i := uint32(0); i < fileCount; i++ {
		name, err := readPkgString(r)
		if err != nil {
			return "", nil, 0, err
		}
		var offset, size uint32
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return "", nil, 0, err
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return "", nil, 0, err
		}
		entries = append(entries, FileEntry{Name: name, Offset: offset, Size: size})
	}

	dataStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, 0, err
	}
	return version, entries, dataStart, nil
}

// ExtractPkg unpacks every entry of a PKGV archive below outputDir.
func ExtractPkg(pkgPath, outputDir string) error {
	utils.Debug("Unpacker: Opening package %s", pkgPath)
	f, err := os.Open(pkgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	version, entries, dataStartPos, err := ReadPkgIndex(f)
	if err != nil {
		return fmt.Errorf("unpacker: %s: %w", pkgPath, err)
	}
	utils.Debug("Unpacker: Package Version: %s, File Count: %d", version, len(entries))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	root, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		if i%10 == 0 || i == len(entries)-1 {
			utils.Debug("Unpacker: Extracting file %d/%d: %s", i+1, len(entries), entry.Name)
		}
		destPath := filepath.Join(root, filepath.FromSlash(entry.Name))
		if !strings.HasPrefix(destPath, root+string(filepath.Separator)) {
			return fmt.Errorf("unpacker: entry %q escapes %s", entry.Name, outputDir)
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		if _, err := f.Seek(dataStartPos+int64(entry.Offset), io.SeekStart); err != nil {
			return err
		}

		outF, err := os.Create(destPath)
		if err != nil {
			return err
		}

		_, err = io.CopyN(outF, f, int64(entry.Size))
		outF.Close()
		if err != nil {
			return fmt.Errorf("unpacker: %s: %w", entry.Name, err)
		}
	}

	utils.Debug("Unpacker: Extraction completed successfully")
	return nil
}

// maxConcurrency bounds decode workers to avoid RAM spikes on large textures.
const maxConcurrency = 8

// DecodeAll decodes every path in parallel. Failed paths are missing from the
// result and reported together in the returned error.
func DecodeAll(paths []string) (map[string]*image.RGBA, error) {
	utils.Info("Decoding %d textures in parallel...", len(paths))
	var (
		decodedCount int32
		wg           sync.WaitGroup
		mu           sync.Mutex
		errs         []error
	)
	results := make(map[string]*image.RGBA, len(paths))
	sem := make(chan struct{}, maxConcurrency)
	seen := make(map[string]bool, len(paths))

	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		wg.Add(1)
		sem <- struct{}{} // Acquire slot
		go func(p string) {
			defer wg.Done()
			defer func() { <-sem }() // Release slot
			img, err := LoadImage(p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				utils.Error("Failed to decode %s: %v", p, err)
				errs = append(errs, err)
				return
			}
			results[p] = img
			atomic.AddInt32(&decodedCount, 1)
		}(path)
	}

	wg.Wait()
	utils.Info("Texture decoding finished. Decoded %d of %d textures.", decodedCount, len(seen))
	return results, errors.Join(errs...)
}
