package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"filedrop/internal/app"
	"filedrop/pkg/utils"
)

type ServeFlags struct {
	Dir           string
	MaxConcurrent int
	KeepPartial   bool
}

var serveFlags ServeFlags

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"receive"},
	Short:   "Receive files from senders",
	Long: `Listen on --host:--port and store every received file in --dir.

Each connection carries one file. Names are reduced to a bare file name and
anything that would escape the storage directory is rejected. A transfer that
ends early is removed unless --keep-partial is set. The receiver keeps serving
after a failed transfer and stops on Ctrl+C.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateStorageDir(cfg.Transfer.StorageDir)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := createContext()
		defer cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "Receiving files on %s into %s (Ctrl+C to stop)\n",
			cfg.Address(), cfg.Transfer.StorageDir)
		return app.NewReceiverApp(cfg).Run(ctx, &app.ReceiverOptions{})
	},
}

// validateStorageDir applies the same rules the receiver's store uses
func validateStorageDir(dir string) error {
	_, err := utils.ResolveStorageDir(dir)
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.Dir, "dir", "d", ".", "Directory to store received files")
	serveCmd.Flags().IntVar(&serveFlags.MaxConcurrent, "max-concurrent", 1, "Maximum transfers handled at once")
	serveCmd.Flags().BoolVar(&serveFlags.KeepPartial, "keep-partial", false, "Keep files from interrupted transfers")

	// Bind flags to viper so config files and FILEDROP_* variables apply too
	viper.BindPFlag("transfer.storage_dir", serveCmd.Flags().Lookup("dir"))
	viper.BindPFlag("network.max_concurrent", serveCmd.Flags().Lookup("max-concurrent"))
	viper.BindPFlag("transfer.keep_partial", serveCmd.Flags().Lookup("keep-partial"))
}
