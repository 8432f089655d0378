package handlers

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"inkpress/builder/converter"
	"inkpress/builder/phase"
	"inkpress/builder/store"
	"inkpress/builder/utils"
)

const (
	imageWidth     = 1600
	thumbnailWidth = 480
	webpQuality    = 85
)

// resizeWebP scales src down to at most width pixels wide and re-encodes
// it as webp. Images already narrower than width are re-encoded as-is.
func resizeWebP(src []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeInto produces a resized webp of src at dest, serving repeat
// conversions from the artifact cache keyed on the source bytes.
func resizeInto(env *Env, src, dest string, width int) error {
	data, err := afero.ReadFile(env.SourceFs, src)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", src, err)
	}

	kind := fmt.Sprintf("webp-%d", width)
	sum := utils.SumBytes(data)
	out, ok, err := env.Artifacts.Get(kind, sum)
	if err != nil {
		return err
	}
	if !ok {
		if out, err = resizeWebP(data, width); err != nil {
			return err
		}
		if err := env.Artifacts.Put(kind, sum, out); err != nil {
			return err
		}
	}
	return utils.WriteFileAtomic(env.DestFs, dest, out, 0644)
}

// ImportImage turns a standalone image into an image document: a scaled
// copy plus a thumbnail under the files directory, and a fact-store row
// pointing at both.
func ImportImage(env *Env) phase.Handler {
	return func(p string) (phase.BuildInfo, error) {
		rel, err := env.rel(p)
		if err != nil {
			return phase.BuildInfo{}, err
		}
		info := converter.ParsePath(rel)
		scale := info.Scale
		if scale < 1 {
			scale = 1
		}

		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		dir := path.Dir(rel)
		imageRel := utils.JoinSlash(dir, name+".webp")
		thumbRel := utils.JoinSlash(dir, name+"-thumbnail.webp")

		imageDest := utils.JoinSlash(env.FilesDir, imageRel)
		thumbDest := utils.JoinSlash(env.FilesDir, thumbRel)
		if err := resizeInto(env, p, imageDest, imageWidth*scale); err != nil {
			return phase.BuildInfo{}, err
		}
		if err := resizeInto(env, p, thumbDest, thumbnailWidth); err != nil {
			return phase.BuildInfo{}, err
		}

		stat, err := env.SourceFs.Stat(p)
		if err != nil {
			return phase.BuildInfo{}, err
		}
		sum, err := utils.SumFile(env.SourceFs, p)
		if err != nil {
			return phase.BuildInfo{}, err
		}

		doc := &store.Document{
			URL:    info.URL,
			Parent: info.Parent,
			Type:   "image",
			Date:   info.Date,
			Mtime:  stat.ModTime(),
			Sum:    sum,
			Meta: map[string]any{
				"title":     info.Title,
				"image":     "/" + imageRel,
				"thumbnail": "/" + thumbRel,
				"scale":     info.Scale,
			},
		}
		if err := env.Store.Put(doc); err != nil {
			return phase.BuildInfo{}, err
		}
		return phase.BuildInfo{
			Files: []string{imageDest, thumbDest},
			URLs:  []string{doc.URL},
		}, nil
	}
}
