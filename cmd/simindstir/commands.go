package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"simindstir/internal/models"
	"simindstir/pkg/config"
	"simindstir/pkg/interfile"
	"simindstir/pkg/noise"
	"simindstir/pkg/projection"
	"simindstir/pkg/scatter"
	"simindstir/pkg/simind"
	"simindstir/pkg/visualization"
)

// windowFlag parses "lower,upper" into an energy window
type windowFlag struct {
	w *models.EnergyWindow
}

func (f *windowFlag) String() string {
	if f.w == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", f.w.Lower, f.w.Upper)
}

func (f *windowFlag) Set(s string) error {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("expected lower,upper")
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return err
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return err
	}
	f.w = &models.EnergyWindow{Lower: lower, Upper: upper}
	return nil
}

func runConvert(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "convert")
	contour := fs.String("contour", "", "Contour file used for every header without its own (header=contour)")
	workers := fs.Int("workers", 0, "Concurrent conversions (0 uses processing.numWorkers)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: simindstir convert [flags] header.h00[=contour] ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("convert: no headers given")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	jobs := make([]simind.Job, 0, fs.NArg())
	for _, arg := range fs.Args() {
		header, c, ok := strings.Cut(arg, "=")
		if !ok {
			c = *contour
		}
		jobs = append(jobs, simind.Job{Header: header, Contour: c})
	}

	conv := simind.NewConverter(simind.Options{
		InputExt:      env.cfg.Conversion.InputExt,
		OutputExt:     env.cfg.Conversion.OutputExt,
		StartAngle:    env.cfg.Conversion.StartAngle,
		RadiusScale:   env.cfg.Conversion.RadiusScale,
		CircularOrbit: simind.CircularOrbitPolicy(env.cfg.Conversion.CircularOrbit),
		Logger:        env.logger,
	})

	if *workers <= 0 {
		*workers = env.cfg.Processing.NumWorkers
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := conv.ConvertAll(ctx, jobs, *workers)
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(env.stdout, "%s -> %s\n", r.Header, r.Output)
		}
	}
	env.logger.Info("conversion finished", "headers", len(jobs), "elapsed", time.Since(start))
	return err
}

func runDEW(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "dew")
	ppPath := fs.String("pp", "", "Photopeak window header")
	scPath := fs.String("sc", "", "Scatter window header")
	out := fs.String("out", "", "Corrected projection header to write")
	var ppWin, scWin windowFlag
	fs.Var(&ppWin, "pp-window", "Photopeak window lower,upper (keV), read from the header when unset")
	fs.Var(&scWin, "sc-window", "Scatter window lower,upper (keV), read from the header when unset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ppPath == "" || *scPath == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("dew: -pp, -sc and -out are required")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	pp, err := projection.Load(*ppPath)
	if err != nil {
		return err
	}
	sc, err := projection.Load(*scPath)
	if err != nil {
		return err
	}

	corrected, err := newCorrector(env).DEW(pp, sc, ppWin.w, scWin.w)
	if err != nil {
		return err
	}
	return writeProjection(env, corrected, *out)
}

func runTEW(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "tew")
	ppPath := fs.String("pp", "", "Photopeak window header")
	sc1Path := fs.String("sc1", "", "Lower scatter window header")
	sc2Path := fs.String("sc2", "", "Upper scatter window header")
	out := fs.String("out", "", "Corrected projection header to write")
	var ppWin, sc1Win, sc2Win windowFlag
	fs.Var(&ppWin, "pp-window", "Photopeak window lower,upper (keV), read from the header when unset")
	fs.Var(&sc1Win, "sc1-window", "Lower scatter window lower,upper (keV), read from the header when unset")
	fs.Var(&sc2Win, "sc2-window", "Upper scatter window lower,upper (keV), read from the header when unset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ppPath == "" || *sc1Path == "" || *sc2Path == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("tew: -pp, -sc1, -sc2 and -out are required")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	var data [3]*projection.Data
	for i, p := range []string{*ppPath, *sc1Path, *sc2Path} {
		d, err := projection.Load(p)
		if err != nil {
			return err
		}
		data[i] = d
	}

	corrected, err := newCorrector(env).TEW(data[0], data[1], data[2], ppWin.w, sc1Win.w, sc2Win.w)
	if err != nil {
		return err
	}
	return writeProjection(env, corrected, *out)
}

func newCorrector(env *environment) *scatter.Corrector {
	return scatter.NewCorrector(scatter.Options{
		Workers: env.cfg.Processing.NumWorkers,
		Logger:  env.logger,
	})
}

func writeProjection(env *environment, d *projection.Data, path string) error {
	if err := d.Write(path); err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, path)
	return nil
}

func runPar(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "par")
	template := fs.String("template", "", "Parameter file template")
	out := fs.String("out", "", "Parameter file to write")
	var in interfile.OSEMInputs
	fs.StringVar(&in.InputFile, "input", "", "Projection header to reconstruct")
	fs.StringVar(&in.OutputPrefix, "prefix", "", "Output filename prefix")
	fs.StringVar(&in.InitialEstimate, "init", "", "Initial estimate image")
	fs.StringVar(&in.AttenuationMap, "atten", "", "Attenuation map image")
	fs.StringVar(&in.MaskFile, "mask", "", "Reconstruction mask image")
	fs.IntVar(&in.Subsets, "subsets", 0, "Number of subsets (0 keeps the default)")
	fs.IntVar(&in.Subiterations, "subiters", 0, "Number of subiterations (0 keeps the default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *template == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("par: -template and -out are required")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	updates, err := interfile.OSEMParams(in)
	if err != nil {
		return err
	}
	path, err := interfile.UpdateParFile(*template, *out, updates)
	if err != nil {
		return err
	}
	env.logger.Info("parameter file written", "template", *template, "output", path, "updates", len(updates))
	fmt.Fprintln(env.stdout, path)
	return nil
}

func runNoise(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "noise")
	in := fs.String("in", "", "Projection header")
	out := fs.String("out", "", "Noisy projection header to write")
	seed := fs.Uint64("seed", 0, "Random seed (0 uses noise.seed from the configuration)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("noise: -in and -out are required")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	d, err := projection.Load(*in)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = env.cfg.Noise.Seed
	}
	noisy := noise.AddPoisson(d, noise.NewSource(*seed), env.logger)
	return writeProjection(env, noisy, *out)
}

func runView(env *environment, args []string) error {
	fs, configPath := newFlagSet(env, "view")
	in := fs.String("in", "", "Projection header")
	outDir := fs.String("out", "projections", "Directory for the images")
	ext := fs.String("ext", ".jpg", "Image format, .jpg or .png")
	index := fs.Int("projection", 0, "Single projection to export (1-based, 0 exports all)")
	row := fs.Int("sinogram", -1, "Detector row to export as a sinogram (-1 for none)")
	lo := fs.Float64("min", 0, "Display window minimum (min=max=0 uses the data range)")
	hi := fs.Float64("max", 0, "Display window maximum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("view: -in is required")
	}
	if err := env.setup(*configPath); err != nil {
		return err
	}

	d, err := projection.Load(*in)
	if err != nil {
		return err
	}
	viewer := visualization.NewViewer(d)
	viewer.SetWindow(*lo, *hi)

	if *index == 0 {
		if err := viewer.SaveSequence(*outDir, *ext); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return err
		}
		name := filepath.Join(*outDir, fmt.Sprintf("projection_%03d%s", *index, *ext))
		if err := visualization.SaveImage(viewer.ExtractProjection(*index), name); err != nil {
			return err
		}
	}

	if *row >= 0 {
		img, err := viewer.ExtractSinogram(*row)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return err
		}
		name := filepath.Join(*outDir, fmt.Sprintf("sinogram_%03d%s", *row, *ext))
		if err := visualization.SaveImage(img, name); err != nil {
			return err
		}
	}

	env.logger.Info("images written", "input", *in, "directory", *outDir)
	fmt.Fprintln(env.stdout, *outDir)
	return nil
}

func runConfig(env *environment, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	out := fs.String("out", "simindstir.yaml", "Configuration file to create")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.CreateDefaultConfigFile(*out); err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, *out)
	return nil
}
