package interfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParamUpdate sets a parameter of a STIR .par file
type ParamUpdate struct {
	Name  string
	Value string
}

// UpdateParams rewrites the "key := value" lines of a parameter file whose
// key, trimmed and compared case-insensitively, equals the name of one of
// updates. The first matching update wins. Rewritten lines keep their
// indentation and use the update's spelling of the name; every other line
// is passed through unchanged.
func UpdateParams(data []byte, updates []ParamUpdate) []byte {
	h := Parse(data)
	for i, e := range h.entries {
		key, _, ok := strings.Cut(e.raw, ":=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		for _, u := range updates {
			if strings.EqualFold(key, u.Name) {
				h.entries[i] = Entry{raw: e.Indent() + u.Name + " := " + u.Value + "\n"}
				break
			}
		}
	}
	return h.Bytes()
}

// UpdateParFile applies updates to the template parameter file and writes
// the result to outputPath, which it returns.
func UpdateParFile(templatePath, outputPath string, updates []ParamUpdate) (string, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: parameter file %s: %w", ErrFatalInput, templatePath, err)
		}
		return "", fmt.Errorf("error reading parameter file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	if err := writeAtomic(outputPath, UpdateParams(data, updates)); err != nil {
		return "", err
	}
	return outputPath, nil
}

// OSEMInputs names the files and iteration settings of an OSEM
// reconstruction parameter file
type OSEMInputs struct {
	InputFile       string
	OutputPrefix    string
	InitialEstimate string
	AttenuationMap  string
	MaskFile        string
	Subsets         int
	Subiterations   int
}

// OSEMParams returns the parameter updates for an OSEM reconstruction.
// Paths are made absolute. Zero Subsets and Subiterations default to 4
// and 24.
func OSEMParams(in OSEMInputs) ([]ParamUpdate, error) {
	if in.Subsets == 0 {
		in.Subsets = 4
	}
	if in.Subiterations == 0 {
		in.Subiterations = 24
	}

	updates := make([]ParamUpdate, 0, 7)
	for _, p := range []struct{ name, path string }{
		{"input file", in.InputFile},
		{"output filename prefix", in.OutputPrefix},
		{"initial estimate", in.InitialEstimate},
		{"attenuation map", in.AttenuationMap},
		{"mask file", in.MaskFile},
	} {
		if p.path == "" {
			continue
		}
		abs, err := filepath.Abs(p.path)
		if err != nil {
			return nil, fmt.Errorf("error resolving %s: %w", p.name, err)
		}
		updates = append(updates, ParamUpdate{Name: p.name, Value: abs})
	}
	updates = append(updates,
		ParamUpdate{Name: "number of subsets", Value: strconv.Itoa(in.Subsets)},
		ParamUpdate{Name: "number of subiterations", Value: strconv.Itoa(in.Subiterations)},
	)
	return updates, nil
}
