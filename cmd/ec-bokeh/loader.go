package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/elvencache/ec-bokeh/internal/config"
	"github.com/elvencache/ec-bokeh/internal/convert"
	"github.com/elvencache/ec-bokeh/internal/device"
	"github.com/elvencache/ec-bokeh/internal/engine3D"
	"github.com/elvencache/ec-bokeh/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrTextureNotFound = errors.New("loader: texture not found")

// Flat stand-ins for a material slot left empty in the config.
var (
	flatAlbedo = color.RGBA{200, 200, 200, 255}
	flatNormal = color.RGBA{128, 128, 255, 255}
)

type material struct {
	albedo, normal *image.RGBA
}

// packageCacheDir is where an asset package is extracted: one directory per
// archive name under the cache root.
func packageCacheDir(cacheRoot, pkgPath string) string {
	base := filepath.Base(pkgPath)
	return filepath.Join(cacheRoot, strings.TrimSuffix(base, filepath.Ext(base)))
}

// prepareAssets registers the asset roots, extracting the package on first use.
// The package root is searched before the plain asset directory.
func prepareAssets(a config.AssetsConfig) error {
	if a.Root != "" {
		utils.AddAssetRoot(a.Root)
	}
	if a.Package == "" {
		return nil
	}

	dir := packageCacheDir(a.CacheDir, a.Package)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		utils.Info("Unpacking %s into %s...", a.Package, dir)
		if err := convert.ExtractPkg(a.Package, dir); err != nil {
			return fmt.Errorf("assets: %w", err)
		}
	} else {
		utils.Debug("Assets: reusing extracted package at %s", dir)
	}
	utils.AddAssetRoot(dir)
	return nil
}

func flatImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// findTexture resolves a configured texture name. An empty name is allowed
// and selects a flat color.
func findTexture(name string) (string, error) {
	if name == "" {
		utils.Warn("Loader: no texture configured, using a flat color")
		return "", nil
	}
	p := utils.FindTextureFile(name)
	if p == "" {
		return "", fmt.Errorf("%w: %q in %v", ErrTextureNotFound, name, utils.AssetRoots)
	}
	return p, nil
}

func pick(images map[string]*image.RGBA, path string, flat color.RGBA) *image.RGBA {
	if path == "" {
		return flatImage(flat)
	}
	return images[path]
}

// decodeMaterial finds and decodes the albedo and normal textures in parallel.
func decodeMaterial(sc config.SceneConfig) (material, error) {
	albedoPath, err := findTexture(sc.Albedo)
	if err != nil {
		return material{}, err
	}
	normalPath, err := findTexture(sc.Normal)
	if err != nil {
		return material{}, err
	}

	var wanted []string
	for _, p := range []string{albedoPath, normalPath} {
		if p != "" {
			wanted = append(wanted, p)
		}
	}
	images, err := convert.DecodeAll(wanted)
	if err != nil {
		return material{}, err
	}
	return material{
		albedo: pick(images, albedoPath, flatAlbedo),
		normal: pick(images, normalPath, flatNormal),
	}, nil
}

// buildScene places the configured meshes. It needs the material already
// uploaded so the scene can refer to its images.
func buildScene(sc config.SceneConfig, albedo, normal engine3D.ImageHandle) *engine3D.Scene {
	names := make([]string, 0, len(sc.Meshes))
	scales := make(map[string]float32, len(sc.Meshes))
	for _, m := range sc.Meshes {
		names = append(names, m.Name)
		scales[m.Name] = m.Scale
	}

	ground := sc.GroundMesh
	if ground == "" && len(names) > 0 {
		ground = names[0]
	}

	return &engine3D.Scene{
		Models:        engine3D.GenerateModels(names, sc.ModelCount, sc.Seed),
		MeshScales:    scales,
		Ground:        ground,
		Albedo:        albedo,
		Normal:        normal,
		LightPosition: mgl32.Vec3(sc.LightPosition),
	}
}

func uploadScene(dev *device.Device, sc config.SceneConfig, m material) (*engine3D.Scene, error) {
	if err := dev.LoadMeshes(sc.Meshes); err != nil {
		return nil, err
	}
	albedo, err := dev.LoadTexture(m.albedo)
	if err != nil {
		return nil, fmt.Errorf("albedo: %w", err)
	}
	normal, err := dev.LoadTexture(m.normal)
	if err != nil {
		return nil, fmt.Errorf("normal: %w", err)
	}

	scene := buildScene(sc, albedo, normal)
	utils.Info("Scene: %d models over %d meshes, ground %q", len(scene.Models), len(sc.Meshes), scene.Ground)
	return scene, nil
}
