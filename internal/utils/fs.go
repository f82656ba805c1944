package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AssetRoots lists directories searched for meshes and textures, in priority order.
// An extracted asset package is prepended at startup.
var AssetRoots = []string{"assets"}

var errFound = errors.New("found")

// TextureExtensions are tried in order when a texture is named without an extension.
var TextureExtensions = []string{".dds", ".tex", ".png", ".jpg", ".jpeg"}

// AddAssetRoot puts dir in front of the search list unless it is already present.
func AddAssetRoot(dir string) {
	for _, r := range AssetRoots {
		if r == dir {
			return
		}
	}
	AssetRoots = append([]string{dir}, AssetRoots...)
}

// ResolveAssetPath returns the first existing root-relative match for relPath.
// Absolute paths and paths that already exist are returned untouched.
func ResolveAssetPath(relPath string) string {
	if relPath == "" {
		return ""
	}
	if filepath.IsAbs(relPath) {
		return relPath
	}
	if _, err := os.Stat(relPath); err == nil {
		return relPath
	}

	for _, root := range AssetRoots {
		p := filepath.Join(root, relPath)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if len(AssetRoots) > 0 {
		return filepath.Join(AssetRoots[0], relPath) // Fallback to first root even if not exists
	}
	return relPath
}

// FindTextureFile locates a texture by name, trying known extensions in every
// asset root and finally a recursive walk by base name.
func FindTextureFile(name string) string {
	if name == "" {
		return ""
	}

	name = filepath.ToSlash(name)
	ext := strings.ToLower(filepath.Ext(name))
	cleanName := name
	for _, e := range TextureExtensions {
		if ext == e {
			cleanName = strings.TrimSuffix(name, filepath.Ext(name))
			break
		}
	}

	candidates := []string{name}
	for _, e := range TextureExtensions {
		candidates = append(candidates, cleanName+e)
	}

	searchDirs := append([]string{""}, AssetRoots...)
	for _, dir := range searchDirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}

	// Recursive fallback by base name
	var foundPath string
	targetBase := filepath.Base(cleanName)
	for _, d := range AssetRoots {
		if _, err := os.Stat(d); err != nil {
			continue
		}
		filepath.WalkDir(d, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			base := entry.Name()
			e := strings.ToLower(filepath.Ext(base))
			if strings.TrimSuffix(base, filepath.Ext(base)) != targetBase {
				return nil
			}
			for _, known := range TextureExtensions {
				if e == known {
					foundPath = path
					return errFound
				}
			}
			return nil
		})
		if foundPath != "" {
			break
		}
	}

	return foundPath
}
