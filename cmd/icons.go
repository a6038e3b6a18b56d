package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"Musarty/storage"

	"github.com/spf13/cobra"
)

var (
	iconPrefix string
	iconDelete bool
)

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "电台图标缓存管理",
	Long:  `列出MinIO存储桶中缓存的电台图标，或删除某个前缀下的全部图标。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return fmt.Errorf("connect to minio: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return manageIcons(ctx, store, out, iconPrefix, iconDelete)
	},
}

func manageIcons(ctx context.Context, store storage.IconStore, out io.Writer, prefix string, del bool) error {
	if del {
		if prefix == "" {
			return fmt.Errorf("deleting requires --prefix")
		}
		n, err := store.DeletePrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("delete %s: %w", prefix, err)
		}
		fmt.Fprintf(out, "Deleted %d objects under %s\n", n, prefix)
		return nil
	}

	objects, err := store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(objects) == 0 {
		fmt.Fprintln(out, "No icons cached")
		return nil
	}

	var total int64
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tSIZE\tMODIFIED")
	for _, o := range objects {
		total += o.Size
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Key, o.ContentType, formatSize(o.Size), o.Modified.Format("2006-01-02 15:04"))
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d icons, %s\n", len(objects), formatSize(total))
	return nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(iconsCmd)

	iconsCmd.Flags().StringVarP(&iconPrefix, "prefix", "p", "icons/", "对象前缀")
	iconsCmd.Flags().BoolVarP(&iconDelete, "delete", "d", false, "删除该前缀下的所有对象")
}
