package nodes

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/registry"
)

// Image is the opaque image value handed to the host, which decodes it.
type Image struct {
	Data        []byte
	ContentType string
	// Placeholder is set when no image file was found.
	Placeholder bool
}

// ContentTypes maps supported image extensions to MIME types.
var ContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// ContentTypeFor returns the MIME type for a file path by its extension.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ct, ok := ContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// PlaceholderPNG returns a 1x1 black PNG.
func PlaceholderPNG() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.RGBA{A: 255})
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			panic("encode placeholder png: " + err.Error())
		}
		placeholderPNG = buf.Bytes()
	})
	return placeholderPNG
}

func imageInputs() []Port {
	exts := append([]string(nil), registry.ImageExts...)
	return []Port{
		{Name: "key", Type: TypeString, Default: "", Placeholder: "set via dropdown"},
		{Name: "registry_path", Type: TypeString, Default: "", Placeholder: "store file name or path"},
		{Name: "ext", Type: TypeChoice, Default: registry.DefaultImageExt, Choices: exts},
	}
}

// imageRequest reads the shared inputs and reports whether both the key
// and the registry reference are present.
func imageRequest(in Values) (key, ref, ext string, ok bool) {
	key = strings.TrimSpace(stringInput(in, "key"))
	ref = strings.TrimSpace(stringInput(in, "registry_path"))
	ext = stringInput(in, "ext")
	return key, ref, ext, key != "" && ref != ""
}

// ImagePathFromRegistry computes where the image for a key lives.
type ImagePathFromRegistry struct {
	resolver *registry.Resolver
}

// NewImagePathFromRegistry creates the node over resolver.
func NewImagePathFromRegistry(resolver *registry.Resolver) *ImagePathFromRegistry {
	return &ImagePathFromRegistry{resolver: resolver}
}

func (*ImagePathFromRegistry) Name() string        { return "KVImagePathFromRegistry" }
func (*ImagePathFromRegistry) DisplayName() string { return "KV Image Path from Registry" }
func (*ImagePathFromRegistry) Category() string    { return Category }
func (*ImagePathFromRegistry) Inputs() []Port      { return imageInputs() }

func (*ImagePathFromRegistry) Outputs() []Port {
	return []Port{{Name: "path", Type: TypeString}}
}

// Execute returns the computed path even when no file exists there. Empty
// or unusable inputs yield "". Sandbox violations and an unsupported ext
// are errors.
func (n *ImagePathFromRegistry) Execute(ctx context.Context, in Values) (Values, error) {
	key, ref, ext, ok := imageRequest(in)
	if !ok {
		return Values{"path": ""}, nil
	}
	path, err := n.resolver.ImagePath(ctx, ref, key, ext)
	if err != nil {
		if !missingImage(err) {
			return nil, err
		}
		path = ""
	}
	return Values{"path": path}, nil
}

// PreviewImageFromRegistry loads the image for a key, falling back to a
// placeholder so graphs keep running when an image is missing.
type PreviewImageFromRegistry struct {
	resolver *registry.Resolver
}

// NewPreviewImageFromRegistry creates the node over resolver.
func NewPreviewImageFromRegistry(resolver *registry.Resolver) *PreviewImageFromRegistry {
	return &PreviewImageFromRegistry{resolver: resolver}
}

func (*PreviewImageFromRegistry) Name() string        { return "KVPreviewImageFromRegistry" }
func (*PreviewImageFromRegistry) DisplayName() string { return "KV Preview Image from Registry" }
func (*PreviewImageFromRegistry) Category() string    { return Category }
func (*PreviewImageFromRegistry) Inputs() []Port      { return imageInputs() }

func (*PreviewImageFromRegistry) Outputs() []Port {
	return []Port{
		{Name: "image", Type: TypeImage},
		{Name: "path", Type: TypeString},
	}
}

// Execute falls back to the placeholder when the image is missing or the
// inputs are unusable. Sandbox violations and an unsupported ext are errors.
func (n *PreviewImageFromRegistry) Execute(ctx context.Context, in Values) (Values, error) {
	placeholder := Values{
		"image": Image{Data: PlaceholderPNG(), ContentType: "image/png", Placeholder: true},
		"path":  "",
	}

	key, ref, ext, ok := imageRequest(in)
	if !ok {
		return placeholder, nil
	}
	path, err := n.resolver.ResolveImage(ctx, ref, key, ext)
	if err != nil {
		if !missingImage(err) {
			return nil, err
		}
		return placeholder, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return placeholder, nil
	}
	return Values{
		"image": Image{Data: data, ContentType: ContentTypeFor(path)},
		"path":  path,
	}, nil
}

// missingImage reports whether err means there is simply no image to show,
// as opposed to a rejected request.
func missingImage(err error) bool {
	return kverrors.IsNotFound(err) || kverrors.Is(err, kverrors.ErrCodeInvalidReference)
}
