package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hrhub-approval",
	Short: "Electronic approval workflow server and client",
	Long: `hrhub-approval drives report documents through drafting, sequential
multi-party approval, recall, resubmission and scheduled submission.

It runs the REST API server and also ships a command line client
for the same API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env 不存在时忽略
		_ = godotenv.Load()
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: search in current directory, ./config, or $HOME/.hrhub-approval)")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// LoadConfig 加载配置
func LoadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
