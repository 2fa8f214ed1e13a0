package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LJTian/topicfeed/internal/aggregator"
	"github.com/LJTian/topicfeed/internal/config"
	"github.com/LJTian/topicfeed/internal/logger"
	"github.com/LJTian/topicfeed/internal/router"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		category   string
		format     string
		configPath string
	)

	root := &cobra.Command{
		Use:           "collect",
		Short:         "Collect topics for one category and print them",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := router.Parse(category)
			if cat == router.Unknown {
				return fmt.Errorf("unknown category %q, run `collect categories` for the list", category)
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (table|json)", format)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Log); err != nil {
				return err
			}
			defer logger.Sync()
			logger.Debugf("config loaded: windows=%v workers=%d", cfg.Collect.WindowHours, cfg.Collect.Workers)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := aggregator.FromConfig(cfg).Run(ctx, cat)
			return render(cmd.OutOrStdout(), format, res)
		},
	}
	root.Flags().StringVarP(&category, "category", "c", "", "category label or slug")
	root.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json")
	root.Flags().StringVar(&configPath, "config", os.Getenv("TOPICS_CONFIG"), "path to YAML config")
	_ = root.MarkFlagRequired("category")

	root.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List the available categories",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			renderCategories(cmd.OutOrStdout())
		},
	})

	return root
}

func render(w io.Writer, format string, res aggregator.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s (%d topics, run %s)", res.Category.Label(), len(res.Topics), res.RunID)
	t.AppendHeader(table.Row{"#", "Title", "Source", "Age"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80},
		{Number: 4, Align: text.AlignRight},
	})
	for i, tp := range res.Topics {
		t.AppendRow(table.Row{i + 1, tp.Title(), tp.Source(), tp.TimeAgo()})
	}
	if len(res.Failed) > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("failed: %v", res.Failed), "", ""})
	}
	t.Render()
	return nil
}

func renderCategories(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slug", "Label"})
	for _, c := range router.All() {
		t.AppendRow(table.Row{c.Slug(), c.Label()})
	}
	t.Render()
}
