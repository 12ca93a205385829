package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/churn/internal/model"
)

// DirLoader reads a bundle from a directory holding the five sub-artifact
// files and an optional manifest.yaml. Without a manifest, the bundle
// version is the directory's base name.
type DirLoader struct {
	Dir string
}

// NewDirLoader creates a loader for the bundle at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir}
}

// Load decodes every sub-artifact and assembles them into a Params. It
// does not validate cross-artifact shapes; the Store does that.
func (l *DirLoader) Load(ctx context.Context) (*model.Params, error) {
	info, err := os.Stat(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("artifact: bundle %s: %w: %v", l.Dir, ErrMissing, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact: bundle %s: %w: not a directory", l.Dir, ErrMissing)
	}

	manifest, err := l.readManifest()
	if err != nil {
		return nil, err
	}

	var (
		ni numericImputerBlob
		ns numericScalerBlob
		ci categoricalImputerBlob
		ce categoricalEncoderBlob
		mb modelBlob
	)
	blobs := []struct {
		name string
		dst  any
	}{
		{NumericImputerFile, &ni},
		{NumericScalerFile, &ns},
		{CategoricalImputerFile, &ci},
		{CategoricalEncoderFile, &ce},
		{ModelFile, &mb},
	}
	for _, b := range blobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.readBlob(b.name, manifest, b.dst); err != nil {
			return nil, err
		}
	}

	if !slices.Equal(ni.Features, ns.Features) {
		return nil, fmt.Errorf("artifact: %w: imputer features %v differ from scaler features %v",
			ErrCorrupt, ni.Features, ns.Features)
	}
	if !slices.Equal(ci.Features, ce.Features) {
		return nil, fmt.Errorf("artifact: %w: imputer features %v differ from encoder features %v",
			ErrCorrupt, ci.Features, ce.Features)
	}
	if mb.Bias == nil {
		return nil, fmt.Errorf("artifact: %s: %w: bias not set", ModelFile, ErrCorrupt)
	}

	vocabs := make([][]string, len(ce.Categories))
	for i, c := range ce.Categories {
		vocabs[i] = categoryStrings(c)
	}

	p := &model.Params{
		Version: filepath.Base(filepath.Clean(l.Dir)),
		Numeric: model.NumericParams{
			Features: ni.Features,
			Medians:  ni.Medians,
			Means:    ns.Means,
			Stds:     ns.Stds,
		},
		Categorical: model.CategoricalParams{
			Features:     ci.Features,
			Modes:        categoryStrings(ci.Modes),
			Vocabularies: vocabs,
		},
		Linear: model.LinearParams{
			Weights: mb.Weights,
			Bias:    *mb.Bias,
		},
	}
	if manifest != nil {
		if manifest.Version != "" {
			p.Version = manifest.Version
		}
		p.TrainedAt = manifest.TrainedAt
		p.Metrics = manifest.Metrics
	}
	return p, nil
}

// readManifest returns nil, nil when the bundle has no manifest.
func (l *DirLoader) readManifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: %s: %w: %v", ManifestFile, ErrMissing, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("artifact: %s: %w: %v", ManifestFile, ErrCorrupt, err)
	}
	return &m, nil
}

func (l *DirLoader) readBlob(name string, manifest *Manifest, dst any) error {
	data, err := os.ReadFile(filepath.Join(l.Dir, name))
	if err != nil {
		return fmt.Errorf("artifact: %s: %w: %v", name, ErrMissing, err)
	}

	if manifest != nil {
		if want, ok := manifest.Checksums[name]; ok && want != Checksum(data) {
			return fmt.Errorf("artifact: %s: %w: checksum mismatch", name, ErrCorrupt)
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("artifact: %s: %w: %v", name, ErrCorrupt, err)
	}
	return nil
}
