package compiler

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
	"github.com/viant/jamc/preprocess"
)

// LoadSources downloads the C and JS fragments.
func LoadSources(ctx context.Context, fs afs.Service, cURL, jsURL string) (cSource, jsSource []byte, err error) {
	if cSource, err = fs.DownloadWithURL(ctx, cURL); err != nil {
		return nil, nil, fmt.Errorf("failed to load C source %v: %w", cURL, err)
	}
	if jsSource, err = fs.DownloadWithURL(ctx, jsURL); err != nil {
		return nil, nil, fmt.Errorf("failed to load JS source %v: %w", jsURL, err)
	}
	return cSource, jsSource, nil
}

// Preprocessed is the outcome of PreprocessOnly.
type Preprocessed struct {
	C            string
	JS           string
	Declarations []*preprocess.Declaration
	Conditions   []*preprocess.Condition
	SharedData   []*preprocess.SharedData
	Warnings     diag.List
}

// PreprocessOnly strips the language extension from both fragments and stops.
// The C text is the preserved lines followed by the stripped code.
func (c *Compiler) PreprocessOnly(ctx context.Context, cSource, jsSource []byte) (*Preprocessed, error) {
	var diags diag.List
	ret := &Preprocessed{}
	for _, lang := range jam.Languages {
		source := jsSource
		if lang == jam.C {
			source = cSource
		}
		unit, _, err := c.cache.preprocess(ctx, lang, source)
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}
		diags.Merge(unit.Diagnostics)
		ret.Declarations = append(ret.Declarations, unit.Declarations...)
		ret.Conditions = append(ret.Conditions, unit.Conditions...)
		ret.SharedData = append(ret.SharedData, unit.SharedData...)
		if lang == jam.JS {
			ret.JS = string(unit.Stripped)
			continue
		}
		for _, line := range unit.Preserved {
			ret.C += line + "\n"
		}
		ret.C += string(unit.Stripped)
	}
	if diags.HasErrors() {
		return nil, diags.Err()
	}
	ret.Warnings = diags.Warnings()
	return ret, nil
}
