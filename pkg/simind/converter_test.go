package simind

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simindstir/pkg/interfile"
)

const simindHeader = `!INTERFILE :=
!imaging modality := nucmed
!originating system := simind
!version of keys := 3.3
program author := Michael Ljungberg, Lund University
program version := 8.0
original institution := Lund University
contact person := michael.ljungberg@med.lu.se
!GENERAL DATA :=
data description := static
exam type := simind
study ID := simulation
patient name := phantom
patient ID := 0001
patient orientation := head_in
patient rotation := supine
!data starting block := 0
!name of data file := phantom_tot_w1.a00
!GENERAL IMAGE DATA :=
!type of data := TOMOGRAPHIC
!total number of images := 64
imagedata byte order := LITTLEENDIAN
!number of energy windows := 1
energy window [1] := Tc99m
energy window lower level := 126.45
energy window upper level := 154.55
!number of detector heads := 1
!number of images/energy window := 64
!matrix size [1] := 128
!matrix size [2] := 128
!number format := short float
!number of bytes per pixel := 4
scaling factor (mm/pixel) [1] := 4.42
scaling factor (mm/pixel) [2] := 4.42
!SPECT STUDY (General) :=
!number of projections := 64
!extent of rotation := 360
!time per projection (sec) := 15
image duration (sec) := 960
start angle := 0
!direction of rotation := CCW
acquisition mode := stepped
orbit := %s
Radius := 25.0
!END OF INTERFILE :=
`

const stirHeader = `!INTERFILE :=
!imaging modality := nucmed
!originating system := simind
!version of keys := 3.3
;program author := Michael Ljungberg, Lund University
;program version := 8.0
;original institution := Lund University
;contact person := michael.ljungberg@med.lu.se
!GENERAL DATA :=
;data description := static
;exam type := simind
;study ID := simulation
;patient name := phantom
;patient ID := 0001
;patient orientation := head_in
;patient rotation := supine
!data starting block := 0
!name of data file := phantom_tot_w1.a00
!GENERAL IMAGE DATA :=
!type of data := TOMOGRAPHIC
;total number of images := 64
imagedata byte order := LITTLEENDIAN
!number of energy windows := 1
energy window [1] := Tc99m
energy window lower level[1] := 126.45
energy window upper level[1] := 154.55
;number of detector heads := 1
;number of images/energy window := 64
!matrix size [1] := 128
!matrix size [2] := 128
!number format := float
!number of bytes per pixel := 4
scaling factor (mm/pixel) [1] := 4.42
scaling factor (mm/pixel) [2] := 4.42
!SPECT STUDY (General) :=
!number of projections := 64
!extent of rotation := 360
;time per projection (sec) := 15
number of time frames := 1
image duration (sec)[1] := 960
start angle := 180
!direction of rotation := CCW
Radii := {252.5,255.0,250.0}
;acquisition mode := stepped
orbit := non-circular
Radius := 25.0
!END OF INTERFILE :=
`

const contour = "    1      25.25  0.0\n    2      25.5  0.0\n    3      25.0  0.0\n"

type fixture struct {
	dir     string
	header  string
	contour string
}

func newFixture(t *testing.T, orbit string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		header:  filepath.Join(dir, "phantom.h00"),
		contour: filepath.Join(dir, "phantom.cor"),
	}
	require.NoError(t, os.WriteFile(f.header, []byte(fmt.Sprintf(simindHeader, orbit)), 0644))
	require.NoError(t, os.WriteFile(f.contour, []byte(contour), 0644))
	return f
}

func newTestConverter(opts Options) *Converter {
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConverter(opts)
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConvertNonCircular(t *testing.T) {
	f := newFixture(t, "noncircular")
	c := newTestConverter(Options{})

	out, err := c.Convert(f.header, f.contour)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "phantom.hs"), out)
	assert.Equal(t, stirHeader, read(t, out))

	// the SIMIND header is left alone
	assert.Equal(t, fmt.Sprintf(simindHeader, "noncircular"), read(t, f.header))
}

func TestConvertKeepsUntouchedTags(t *testing.T) {
	f := newFixture(t, "noncircular")
	out, err := newTestConverter(Options{}).Convert(f.header, f.contour)
	require.NoError(t, err)

	src, err := interfile.Load(f.header)
	require.NoError(t, err)
	dst, err := interfile.Load(out)
	require.NoError(t, err)

	for _, tag := range []string{"scaling factor (mm/pixel) [1]", "!matrix size [2]", "!direction of rotation", "Radius"} {
		want, ok := src.Extract(tag)
		require.True(t, ok, tag)
		got, ok := dst.Extract(tag)
		require.True(t, ok, tag)
		assert.Equal(t, want, got, tag)
	}

	w, err := dst.EnergyWindowBounds()
	require.NoError(t, err)
	assert.Equal(t, 126.45, w.Lower)
	assert.Equal(t, 154.55, w.Upper)
}

func TestConvertCircularOrbitFails(t *testing.T) {
	f := newFixture(t, "circular")

	out, err := newTestConverter(Options{}).Convert(f.header, f.contour)
	require.ErrorIs(t, err, ErrUndefinedBranchValue)
	assert.Empty(t, out)

	// the steps before the Radii insertion are on disk, the later ones are not
	partial := read(t, filepath.Join(f.dir, "phantom.hs"))
	assert.Contains(t, partial, "number of time frames := 1\n")
	assert.Contains(t, partial, "!number format := float\n")
	assert.Contains(t, partial, "\nacquisition mode := stepped\n")
	assert.Contains(t, partial, "start angle := 0\n")
	assert.Contains(t, partial, "orbit := circular\n")
	assert.NotContains(t, partial, "Radii")
}

func TestConvertCircularOrbitSkipRadii(t *testing.T) {
	f := newFixture(t, "circular")

	out, err := newTestConverter(Options{CircularOrbit: CircularSkipRadii}).Convert(f.header, "")
	require.NoError(t, err)

	got := read(t, out)
	assert.NotContains(t, got, "Radii")
	assert.Contains(t, got, ";acquisition mode := stepped\n")
	assert.Contains(t, got, "orbit := circular\n")
	assert.Contains(t, got, "start angle := 180\n")
}

func TestConvertOrbitMatchIsExact(t *testing.T) {
	// "non-circular" in the SIMIND header does not select the contour branch
	f := newFixture(t, "non-circular")
	_, err := newTestConverter(Options{}).Convert(f.header, f.contour)
	assert.ErrorIs(t, err, ErrUndefinedBranchValue)
}

func TestConvertErrors(t *testing.T) {
	t.Run("WrongExtension", func(t *testing.T) {
		f := newFixture(t, "noncircular")
		hs := strings.TrimSuffix(f.header, ".h00") + ".hs"
		require.NoError(t, os.Rename(f.header, hs))

		_, err := newTestConverter(Options{}).Convert(hs, f.contour)
		assert.ErrorIs(t, err, interfile.ErrFatalInput)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		_, err := newTestConverter(Options{}).Convert(filepath.Join(t.TempDir(), "none.h00"), "")
		assert.ErrorIs(t, err, interfile.ErrFatalInput)
	})

	t.Run("MissingContourPath", func(t *testing.T) {
		f := newFixture(t, "noncircular")
		_, err := newTestConverter(Options{}).Convert(f.header, "")
		assert.ErrorIs(t, err, interfile.ErrFatalInput)
	})

	t.Run("MissingContourFile", func(t *testing.T) {
		f := newFixture(t, "noncircular")
		_, err := newTestConverter(Options{}).Convert(f.header, filepath.Join(f.dir, "none.cor"))
		assert.ErrorIs(t, err, interfile.ErrFatalInput)
	})
}

func TestConvertOptions(t *testing.T) {
	f := newFixture(t, "noncircular")
	c := newTestConverter(Options{StartAngle: "0", RadiusScale: 1})

	out, err := c.Convert(f.header, f.contour)
	require.NoError(t, err)
	got := read(t, out)
	assert.Contains(t, got, "start angle := 0\n")
	assert.Contains(t, got, "Radii := {25.25,25.5,25.0}\n")
}

func TestConvertAll(t *testing.T) {
	a := newFixture(t, "noncircular")
	b := newFixture(t, "noncircular")
	circ := newFixture(t, "circular")

	jobs := []Job{
		{Header: a.header, Contour: a.contour},
		{Header: circ.header, Contour: circ.contour},
		{Header: b.header, Contour: b.contour},
	}
	results, err := newTestConverter(Options{}).ConvertAll(context.Background(), jobs, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedBranchValue)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, stirHeader, read(t, results[0].Output))
	assert.ErrorIs(t, results[1].Err, ErrUndefinedBranchValue)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, b.header, results[2].Header)
}

func TestConvertAllRejectsSharedOutput(t *testing.T) {
	a := newFixture(t, "noncircular")
	_, err := newTestConverter(Options{}).ConvertAll(context.Background(),
		[]Job{{Header: a.header, Contour: a.contour}, {Header: a.header, Contour: a.contour}}, 2)
	assert.ErrorIs(t, err, interfile.ErrFatalInput)
}

func TestConvertAllCancelled(t *testing.T) {
	a := newFixture(t, "noncircular")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newTestConverter(Options{}).ConvertAll(ctx, []Job{{Header: a.header, Contour: a.contour}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
