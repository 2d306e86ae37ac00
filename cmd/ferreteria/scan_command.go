package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func defaultFormats() string {
	names := make([]string, 0, len(scanner.DefaultFormats))
	for _, f := range scanner.DefaultFormats {
		names = append(names, string(f))
	}
	return strings.Join(names, ",")
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		dir       string
		formats   string
		threshold int
		still     bool
		lookup    bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [image...]",
		Short: "Detect a barcode in image files, one file per frame",
		Long: "Feeds the images to a scan session in order until a code is seen --threshold times.\n" +
			"With --still every image is decoded on its own without confirmation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := scanner.ParseFormats(formats)
			if err != nil {
				return err
			}
			decoder, err := scanner.NewZXingDecoder(fs...)
			if err != nil {
				return err
			}

			paths, err := framePaths(dir, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if still {
				return scanStill(out, decoder, paths)
			}

			if threshold <= 0 {
				scanCfg, err := cfg.LoadScannerCfg()
				if err != nil {
					return err
				}
				threshold = scanCfg.ConfirmThreshold
			}

			src, err := scanner.OpenFiles(paths...)
			if err != nil {
				return err
			}

			sess, err := scanner.NewSession(uuid.NewString(), "cli", decoder, scanner.SessionOptions{Threshold: threshold})
			if err != nil {
				return err
			}

			var onAttempt func(*scanner.Attempt)
			if verbose {
				frame := 0
				onAttempt = func(a *scanner.Attempt) {
					frame++
					fmt.Fprintf(out, "frame %d: code=%q hits=%d/%d\n", frame, a.Code, a.Hits, threshold)
				}
			}

			code, err := scanner.Run(cmd.Context(), sess, src, onAttempt)
			if err != nil {
				if errors.Is(err, e.ErrNoCodeFound) {
					return fmt.Errorf("no barcode confirmed in %d frame(s) at threshold %d", len(paths), threshold)
				}
				return err
			}

			fmt.Fprintf(out, "Confirmed: %s\n", code)
			if !lookup {
				return nil
			}

			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				return printLookup(out, uc, cmd, code)
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory with frames, read in name order")
	cmd.Flags().StringVar(&formats, "formats", defaultFormats(), "Comma separated barcode formats")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Confirmations needed (default $SCAN_CONFIRM_THRESHOLD or 5)")
	cmd.Flags().BoolVar(&still, "still", false, "Decode every image independently")
	cmd.Flags().BoolVar(&lookup, "lookup", false, "Look the confirmed code up in the local store")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every attempt")

	return cmd
}

func framePaths(dir string, args []string) ([]string, error) {
	if dir != "" && len(args) > 0 {
		return nil, errors.New("use either --dir or image arguments, not both")
	}
	if dir == "" {
		if len(args) == 0 {
			return nil, errors.New("no images given")
		}
		return args, nil
	}

	src, err := scanner.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Paths(), nil
}

func scanStill(out io.Writer, decoder scanner.Decoder, paths []string) error {
	rows := make([][]string, 0, len(paths))
	found := 0
	for _, p := range paths {
		code := "-"
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		img, err := scanner.DecodeFrame(data)
		if err != nil {
			code = "invalid image"
		} else if c, ok, err := decoder.Decode(img); err != nil {
			code = err.Error()
		} else if ok {
			code = c
			found++
		}
		rows = append(rows, []string{filepath.Base(p), code})
	}

	fmt.Fprintln(out, renderTable([]string{"File", "Code"}, rows, nil))
	if found == 0 {
		return e.ErrNoCodeFound
	}
	return nil
}

func printLookup(out io.Writer, uc usecase.LocalProductUC, cmd *cobra.Command, code string) error {
	product, err := uc.Get(cmd.Context(), code)
	if errors.Is(err, e.ErrProductNotFound) {
		fmt.Fprintf(out, "Not registered. Register it at %s\n", usecase.RegisterURL(code))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Barcode", "Name", "Price"},
		[][]string{{product.Barcode, product.Name, domain.FormatPrice(product.Price)}},
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
	return nil
}

func formatSize(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n/1024) + " KiB"
}
