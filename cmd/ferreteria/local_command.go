package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/spf13/cobra"
)

func newLocalCommand(ctx *commandContext) *cobra.Command {
	localCmd := &cobra.Command{
		Use:   "local",
		Short: "Manage the local product store",
	}

	localCmd.AddCommand(newLocalListCommand(ctx))
	localCmd.AddCommand(newLocalGetCommand(ctx))
	localCmd.AddCommand(newLocalPutCommand(ctx))
	localCmd.AddCommand(newLocalDeleteCommand(ctx))
	localCmd.AddCommand(newLocalClearCommand(ctx))

	return localCmd
}

func newLocalListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products ordered by barcode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				products, err := uc.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(products) == 0 {
					fmt.Fprintln(out, "No products")
					return nil
				}
				fmt.Fprintln(out, renderProducts(products))
				return nil
			})
		},
	}
}

func newLocalGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <barcode>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				product, err := uc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProducts([]domain.LocalProduct{*product}))
				return nil
			})
		},
	}
}

func newLocalPutCommand(ctx *commandContext) *cobra.Command {
	var (
		name      string
		price     string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "put <barcode>",
		Short: "Insert or replace a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := domain.ParsePrice(price)
			if err != nil {
				return fmt.Errorf("--price %q: %w", price, err)
			}

			product := &domain.LocalProduct{
				Barcode: args[0],
				Name:    strings.TrimSpace(name),
				Price:   cents,
			}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return err
				}
				product.Image = data
				product.ImageType = http.DetectContentType(data[:min(len(data), 512)])
			}

			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				if err := uc.Put(cmd.Context(), product); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", product.Barcode)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Product name")
	cmd.Flags().StringVar(&price, "price", "", "Price, at most 2 decimals")
	cmd.Flags().StringVar(&imagePath, "image", "", "Image file (jpeg, png, webp; up to 2MB)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newLocalDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <barcode>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				if err := uc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newLocalClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", ctx.storePath())
			}
			return ctx.withLocal(cmd.Context(), func(uc usecase.LocalProductUC) error {
				if err := uc.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local store cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm")
	return cmd
}

func renderProducts(products []domain.LocalProduct) string {
	const stampLayout = "2006-01-02 15:04"

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		image := "-"
		if len(p.Image) > 0 {
			image = p.ImageType + " " + formatSize(len(p.Image))
		}
		rows = append(rows, []string{
			p.Barcode,
			p.Name,
			domain.FormatPrice(p.Price),
			image,
			p.CreatedAt.Local().Format(stampLayout),
		})
	}

	return renderTable(
		[]string{"Barcode", "Name", "Price", "Image", "Added"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
