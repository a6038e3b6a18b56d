package cmd

import (
	"Musarty/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Musarty服务器",
	Long:  `启动HTTP服务器，提供播放器页面、WebSocket会话和电台接口。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
