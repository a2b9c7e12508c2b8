package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ncxlabs/netconfd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample netconfd configuration file, with a freshly
generated control-socket magic token.

By default, the configuration file is created at
$XDG_CONFIG_HOME/netconfd/config.yaml. Use --config to specify a custom
path.

Examples:
  netconfd init
  netconfd init --config /etc/netconfd/config.yaml
  netconfd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := config.Default()
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: netconfd start")
	fmt.Printf("  3. Or specify custom config: netconfd start --config %s\n", path)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random control-socket magic token has been generated. The SSH")
	fmt.Println("  subsystem's transport adaptor must present this same token in its")
	fmt.Println("  ncx-connect handshake, or the connection is closed with no reply.")

	return nil
}
