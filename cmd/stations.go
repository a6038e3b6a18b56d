package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"Musarty/core/directory"
	"Musarty/model"

	"github.com/spf13/cobra"
)

var (
	stationKeyword string
	stationLimit   int
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "电台目录浏览",
	Long:  `列出热门电台或按名称搜索电台，选择后输出其播放地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := directory.NewClient(cfg.DirectoryBaseURL)
		client.SetTimeout(cfg.DirectoryTimeout)
		limit := stationLimit
		if limit <= 0 {
			limit = cfg.PopularLimit
			if strings.TrimSpace(stationKeyword) != "" {
				limit = cfg.SearchLimit
			}
		}
		return browseStations(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout(), stationKeyword, limit)
	},
}

func browseStations(ctx context.Context, dir directory.Directory, in io.Reader, out io.Writer, keyword string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		stations []model.Station
		err      error
	)
	if strings.TrimSpace(keyword) == "" {
		fmt.Fprintf(out, "Fetching %d popular stations...\n", limit)
		stations, err = dir.FetchPopular(ctx, limit)
	} else {
		fmt.Fprintf(out, "Searching: %s\n", strings.TrimSpace(keyword))
		stations, err = dir.SearchByName(ctx, keyword, limit)
	}
	if err != nil {
		return fmt.Errorf("query directory: %w", err)
	}
	if len(stations) == 0 {
		fmt.Fprintln(out, "No stations found")
		return nil
	}

	fmt.Fprintf(out, "\nFound %d stations:\n", len(stations))
	for i, st := range stations {
		line := fmt.Sprintf("%d. %s [%s]", i+1, st.Name, st.Country)
		if tag := st.FirstTag(); tag != "" {
			line += " " + tag
		}
		fmt.Fprintf(out, "%s (%s votes)\n", line, st.VoteLabel())
	}

	fmt.Fprint(out, "\nPick a station number: ")
	text, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && text == "" {
		return fmt.Errorf("read choice: %w", err)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || choice < 1 || choice > len(stations) {
		return fmt.Errorf("invalid choice %q", strings.TrimSpace(text))
	}

	st := stations[choice-1]
	fmt.Fprintf(out, "\nStation: %s\n", st.Name)
	fmt.Fprintf(out, "Country: %s\n", st.Country)
	if tags := st.TagList(8); len(tags) > 0 {
		fmt.Fprintf(out, "Tags: %s\n", strings.Join(tags, ", "))
	}
	if q := st.QualityLabel(); q != "" {
		fmt.Fprintf(out, "Quality: %s\n", q)
	}
	fmt.Fprintf(out, "Stream: %s\n", st.PlayURL())
	return nil
}

func init() {
	rootCmd.AddCommand(stationsCmd)

	stationsCmd.Flags().StringVarP(&stationKeyword, "keyword", "k", "", "搜索的电台名称")
	stationsCmd.Flags().IntVarP(&stationLimit, "limit", "l", 0, "返回结果数量（默认使用配置的上限）")
}
