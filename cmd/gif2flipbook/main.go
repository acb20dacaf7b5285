// Command gif2flipbook converts animated GIFs into flipbook layers.
//
// Usage:
//
//	gif2flipbook [flags] file.gif...
//
// Every frame becomes one image file named <name>_NNN.<ext> in the output
// directory, sized the way the texture array would be uploaded. With
// -format asset the whole texture array is saved as <name>.flipbook.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gogpu/flipbook"
	"github.com/gogpu/flipbook/internal/imageio"
	"golang.org/x/image/draw"
)

var errUsage = errors.New("usage: gif2flipbook [flags] file.gif...")

func main() {
	os.Exit(run(os.Args[1:], color.Output, color.Error))
}

// run executes the command and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gif2flipbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		outDir  = fs.String("out", ".", "output directory")
		format  = fs.String("format", "png", "output: png, jpeg, bmp, tiff (one file per layer) or asset")
		size    = fs.Int("size", 0, "maximum layer side in pixels (0 = unlimited)")
		pow2    = fs.Bool("pow2", true, "round layer sides up to a power of two")
		interp  = fs.String("interp", "catmullrom", "scaling filter: nearest, bilinear or catmullrom")
		mips    = fs.Bool("mipmaps", false, "build mip chains (asset output only)")
		verbose = fs.Bool("v", false, "log decoding details to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	red := color.New(color.FgRed).SprintFunc()
	if fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stderr, red(errUsage))
		fs.PrintDefaults()
		return 2
	}

	asset := *format == "asset"
	var f imageio.Format
	if !asset {
		var err error
		if f, err = imageio.ParseFormat(*format); err != nil {
			_, _ = fmt.Fprintln(stderr, red(err))
			return 2
		}
	}
	ip, err := parseInterpolator(*interp)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, red(err))
		return 2
	}
	if *verbose {
		flipbook.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
		defer flipbook.SetLogger(nil)
	}
	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		_, _ = fmt.Fprintln(stderr, red(err))
		return 1
	}

	opts := []flipbook.Option{
		flipbook.WithPowerOfTwo(*pow2),
		flipbook.WithMaxSize(*size),
		flipbook.WithInterpolator(ip),
		flipbook.WithMipmaps(*mips && asset),
	}
	status := 0
	for _, path := range fs.Args() {
		if err := convert(stdout, path, *outDir, asset, f, opts); err != nil {
			_, _ = fmt.Fprintf(stderr, "%s %s: %v\n", red("error"), path, err)
			status = 1
		}
	}
	return status
}

// convert builds the texture array of one GIF and writes it out, either as
// one image per layer or as a single asset.
func convert(w io.Writer, path, outDir string, asset bool, f imageio.Format, opts []flipbook.Option) error {
	arr, err := flipbook.FromFile(path, opts...)
	if err != nil {
		return err
	}
	if asset {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := arr.SaveAsset(filepath.Join(outDir, name+flipbook.AssetExt)); err != nil {
			return err
		}
	} else {
		for i := range arr.Layers {
			if err := imageio.Save(imageio.LayerPath(outDir, path, i, f), arr.Layer(i), f); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	repeat := "forever"
	if arr.RepeatCount > 0 {
		repeat = fmt.Sprintf("%d times", arr.RepeatCount)
	}
	_, err = fmt.Fprintf(w, "%s %s: %d frames, %dx%d, %v, loops %s, alpha %v\n",
		green("ok"), cyan(path), arr.Size.DepthOrArrayLayers,
		arr.Size.Width, arr.Size.Height, arr.Duration(), repeat, arr.HasAlpha)
	return err
}

func parseInterpolator(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "approx":
		return draw.ApproxBiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown interpolator %q", name)
	}
}
