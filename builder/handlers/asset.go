package handlers

import (
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"inkpress/builder/phase"
	"inkpress/builder/utils"
)

var assetLoaders = map[string]api.Loader{
	".css": api.LoaderCSS,
	".js":  api.LoaderJS,
	".ts":  api.LoaderTS,
}

// Asset minifies a stylesheet or script with esbuild and writes the
// result into the files directory. TypeScript sources come out as .js.
func Asset(env *Env) phase.Handler {
	return func(p string) (phase.BuildInfo, error) {
		rel, err := env.rel(p)
		if err != nil {
			return phase.BuildInfo{}, err
		}
		ext := strings.ToLower(path.Ext(rel))
		loader, ok := assetLoaders[ext]
		if !ok {
			return phase.BuildInfo{}, fmt.Errorf("no asset loader for %s", rel)
		}

		source, err := afero.ReadFile(env.SourceFs, p)
		if err != nil {
			return phase.BuildInfo{}, err
		}

		result := api.Transform(string(source), api.TransformOptions{
			Loader:            loader,
			MinifyWhitespace:  true,
			MinifyIdentifiers: true,
			MinifySyntax:      true,
			Sourcefile:        rel,
		})
		if len(result.Errors) > 0 {
			return phase.BuildInfo{}, fmt.Errorf("esbuild failed with %d errors: %s", len(result.Errors), result.Errors[0].Text)
		}

		if ext == ".ts" {
			rel = strings.TrimSuffix(rel, ext) + ".js"
		}
		dest := utils.JoinSlash(env.FilesDir, rel)
		if err := utils.WriteFileAtomic(env.DestFs, dest, result.Code, 0644); err != nil {
			return phase.BuildInfo{}, err
		}
		return phase.BuildInfo{Files: []string{dest}}, nil
	}
}
